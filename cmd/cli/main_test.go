package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers the subset of the API the CLI tests drive.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu     sync.Mutex
	calls  []string
	token  string
	edited *string
	letter map[string]any
}

// Entities below mirror the backend's serialized shape: naive UTC
// timestamps with microseconds and null for unset nullable columns.
const (
	created = "2024-05-01T10:20:30.123456"
	updated = "2024-05-01T10:25:00"
)

func wireUser() map[string]any {
	return map[string]any{"id": "u-1", "name": "Jane Doe", "email": "jane@example.com", "role": "user", "created_at": created}
}

func wireDocument(status string, version int) map[string]any {
	return map[string]any{
		"id": "D1", "doc_type": "resume", "language": "en", "status": status, "version": version,
		"created_at": created, "updated_at": updated,
	}
}

func wireProfile() map[string]any {
	return map[string]any{
		"id": "P1", "summary": "Engineer", "sectors": nil, "roles": []string{"Backend Engineer"},
		"skills": []string{"Go", "SQL"}, "created_at": created,
	}
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	b := &fakeBackend{t: t, token: tok}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "secret" {
			reply(w, 401, map[string]any{"error": "Invalid email or password"})
			return
		}
		reply(w, 200, map[string]any{"message": "Login successful", "token": b.token, "user": wireUser()})
	})
	mux.HandleFunc("POST /api/auth/logout", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, 200, map[string]any{"message": "Logout successful"})
	}))
	mux.HandleFunc("GET /api/auth/me", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, 200, map[string]any{"user": wireUser()})
	}))
	mux.HandleFunc("GET /api/resume/list", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, 200, map[string]any{"profiles": []any{wireProfile()}})
	}))
	mux.HandleFunc("GET /api/company/list", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, 200, map[string]any{"companies": []any{}})
	}))
	mux.HandleFunc("GET /api/letter/list", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, 200, map[string]any{"letters": []any{}})
	}))
	mux.HandleFunc("POST /api/files/upload", b.authed(func(w http.ResponseWriter, r *http.Request) {
		f, h, err := r.FormFile("file")
		require.NoError(t, err)
		_ = f.Close()
		reply(w, 201, map[string]any{"message": "File uploaded successfully", "file": map[string]any{
			"id": "F1", "source": "local", "file_name": h.Filename, "mime_type": h.Header.Get("Content-Type"),
			"size": h.Size, "created_at": created,
		}})
	}))
	mux.HandleFunc("POST /api/ocr/run", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, 200, map[string]any{
			"message": "OCR processing completed", "document": wireDocument("ocred", 1), "text": "JANE DOE ENGINEER",
		})
	}))
	mux.HandleFunc("PUT /api/ocr/D1/edit", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		text := in["edited_text"]
		b.mu.Lock()
		b.edited = &text
		b.mu.Unlock()
		reply(w, 200, map[string]any{"message": "Document updated successfully", "document": wireDocument("edited", 2)})
	}))
	mux.HandleFunc("POST /api/resume/analyze", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, 200, map[string]any{"message": "Resume analyzed successfully", "profile": wireProfile()})
	}))
	mux.HandleFunc("GET /api/resume/P1", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, 200, map[string]any{"profile": wireProfile()})
	}))
	mux.HandleFunc("POST /api/letter/generate", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		b.letter = map[string]any{
			"id": "L1", "profile_id": in["profile_id"], "company_id": in["company_id"],
			"language": in["language"], "tone": in["tone"], "subject": nil, "body": "Generated", "status": "draft",
			"created_at": created, "updated_at": created,
		}
		l := b.letter
		b.mu.Unlock()
		reply(w, 200, map[string]any{"message": "Letter generated successfully", "letter": l})
	}))
	mux.HandleFunc("PUT /api/letter/L1", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		for k, v := range in {
			b.letter[k] = v
		}
		b.letter["updated_at"] = updated
		l := b.letter
		b.mu.Unlock()
		reply(w, 200, map[string]any{"message": "Letter updated successfully", "letter": l})
	}))

	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+b.token {
			reply(w, 401, map[string]any{"error": "Token is missing"})
			return
		}
		h(w, r)
	}
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// env isolates config and session state and points the CLI at b.
func env(t *testing.T, b *fakeBackend) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("JOBASSIST_API_BASE_URL", b.srv.URL+"/api")
	return dir
}

type result struct {
	code   int
	stdout string
	stderr string
}

func ja(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func login(t *testing.T) {
	t.Helper()
	r := ja(t, "", "login", "--email", "jane@example.com", "--password", "secret")
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, r.stdout, "Logged in as Jane Doe <jane@example.com>")
}

func TestVersion(t *testing.T) {
	r := ja(t, "", "version")
	require.Equal(t, 0, r.code)
	require.Equal(t, "ja dev (unknown)\n", r.stdout)
}

func TestProtectedCommandNeedsLogin(t *testing.T) {
	b := newFakeBackend(t)
	env(t, b)

	r := ja(t, "", "dashboard")
	require.Equal(t, 3, r.code)
	require.Contains(t, r.stderr, "login required")
	require.Empty(t, b.Calls())
}

func TestLoginPersistsSession(t *testing.T) {
	b := newFakeBackend(t)
	dir := env(t, b)

	r := ja(t, "wrong\n", "login", "--email", "jane@example.com")
	require.Equal(t, 3, r.code)
	require.Contains(t, r.stderr, "Invalid email or password")

	r = ja(t, "secret\n", "login", "--email", "jane@example.com")
	require.Equal(t, 0, r.code, r.stderr)

	for _, name := range []string{"token", "user", "session.key"} {
		st, err := os.Stat(filepath.Join(dir, "jobassist", name))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), st.Mode().Perm())
	}
	raw, err := os.ReadFile(filepath.Join(dir, "jobassist", "token"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), b.token)

	// a new process restores the session without calling the backend
	before := len(b.Calls())
	r = ja(t, "", "whoami")
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, r.stdout, "Jane Doe <jane@example.com> (id u-1)")
	require.Contains(t, r.stdout, "token expires")
	require.Len(t, b.Calls(), before)

	r = ja(t, "", "login", "--email", "jane@example.com", "--password", "secret")
	require.Equal(t, 2, r.code)
	require.Contains(t, r.stderr, "already logged in as jane@example.com")
}

func TestDashboard(t *testing.T) {
	b := newFakeBackend(t)
	env(t, b)
	login(t)

	r := ja(t, "", "dashboard")
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, r.stdout, "Welcome back, Jane Doe!")
	require.Contains(t, r.stdout, "Resumes: 1   Companies: 0   Cover letters: 0")
	require.Contains(t, r.stdout, "No cover letters yet.")
}

func TestUploadScenario(t *testing.T) {
	b := newFakeBackend(t)
	dir := env(t, b)
	login(t)

	pdf := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n%%EOF\n"), 0o600))

	r := ja(t, "Jane Doe, Engineer", "upload", pdf, "--edit-file", "-")
	require.Equal(t, 0, r.code, r.stderr)

	require.Equal(t, "Jane Doe, Engineer", *b.edited)
	calls := b.Calls()
	require.Equal(t, []string{
		"POST /api/files/upload", "POST /api/ocr/run", "PUT /api/ocr/D1/edit",
		"POST /api/resume/analyze", "GET /api/resume/P1",
	}, calls[len(calls)-5:])

	require.Contains(t, r.stdout, "Resume Analysis P1")
	require.Contains(t, r.stdout, "No sectors identified")
	require.Contains(t, r.stdout, "  - Backend Engineer")
	require.Contains(t, r.stdout, "  - Go\n  - SQL")
	require.NotContains(t, r.stdout, "No skills identified")
}

func TestUploadRejectsLocally(t *testing.T) {
	b := newFakeBackend(t)
	dir := env(t, b)
	login(t)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("just text"), 0o600))
	before := len(b.Calls())

	r := ja(t, "", "upload", txt)
	require.Equal(t, 2, r.code)
	require.Contains(t, r.stderr, "please upload a PDF, PNG, JPG, or DOCX file")
	require.Len(t, b.Calls(), before)
}

func TestLetterGenerateAndEdit(t *testing.T) {
	b := newFakeBackend(t)
	env(t, b)
	login(t)

	r := ja(t, "", "letter", "generate")
	require.Equal(t, 2, r.code)
	require.Contains(t, r.stderr, "select a company")

	body := "Sehr geehrte Damen und Herren,\nich bewerbe mich."
	r = ja(t, body, "letter", "generate", "--profile", "P1", "--company", "C1",
		"--language", "de", "--tone", "technical", "--body-file", "-")
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, r.stdout, "Letter L1  [edited]  language=de tone=technical")
	require.Contains(t, r.stdout, body)
	require.Equal(t, "edited", b.letter["status"])
	require.Equal(t, body, b.letter["body"])
}

func TestLogout(t *testing.T) {
	b := newFakeBackend(t)
	env(t, b)
	login(t)

	r := ja(t, "", "logout")
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, b.Calls(), "POST /api/auth/logout")

	r = ja(t, "", "dashboard")
	require.Equal(t, 3, r.code)
}

func TestConfigShow(t *testing.T) {
	b := newFakeBackend(t)
	env(t, b)
	t.Setenv("JOBASSIST_SESSION_PASSPHRASE", "hunter2")

	r := ja(t, "", "config", "show")
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, r.stdout, b.srv.URL+"/api")
	require.NotContains(t, r.stdout, "hunter2")
}

func TestJSONOutput(t *testing.T) {
	b := newFakeBackend(t)
	env(t, b)
	login(t)

	r := ja(t, "", "--json", "profile", "show", "P1")
	require.Equal(t, 0, r.code, r.stderr)
	var got map[string]any
	require.NoError(t, json.NewDecoder(strings.NewReader(r.stdout)).Decode(&got))
	require.Equal(t, "P1", got["id"])
}

func TestLostSessionKey_LogoutAndLoginRecover(t *testing.T) {
	b := newFakeBackend(t)
	dir := env(t, b)
	login(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "jobassist", "session.key")))

	r := ja(t, "", "logout")
	require.Equal(t, 0, r.code, r.stderr)
	_, err := os.Stat(filepath.Join(dir, "jobassist", "token"))
	require.ErrorIs(t, err, os.ErrNotExist)

	login(t)
	r = ja(t, "", "whoami")
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, r.stdout, "Jane Doe <jane@example.com>")
}

func TestUnreadableSessionActsLoggedOut(t *testing.T) {
	b := newFakeBackend(t)
	dir := env(t, b)
	login(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jobassist", "token"), []byte("garbage"), 0o600))

	r := ja(t, "", "dashboard")
	require.Equal(t, 3, r.code)
	require.Contains(t, r.stderr, "login required")

	login(t)
}

func TestWhoamiRemoteDecodesBackendUser(t *testing.T) {
	b := newFakeBackend(t)
	env(t, b)
	login(t)

	r := ja(t, "", "--json", "whoami", "--remote")
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, b.Calls(), "GET /api/auth/me")
	var got map[string]any
	require.NoError(t, json.NewDecoder(strings.NewReader(r.stdout)).Decode(&got))
	require.Equal(t, "u-1", got["id"])
	require.Equal(t, "jane@example.com", got["email"])
}
