package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Entity bodies as the backend serializes them: naive UTC timestamps with
// microseconds, and null for every unset nullable column.
const (
	userJSON = `{"id":"u-1","name":"Jane Doe","email":"jane@example.com","role":"user",` +
		`"created_at":"2024-05-01T10:20:30.123456"}`
	fileJSON = `{"id":"F1","source":"local","file_name":"resume.pdf","mime_type":"application/pdf","size":4,` +
		`"created_at":"2024-05-01T10:20:31.000001"}`
	documentJSON = `{"id":"D1","doc_type":"resume","language":"en","status":"ocred","version":1,` +
		`"created_at":"2024-05-01T10:21:02.500000","updated_at":"2024-05-01T10:21:02.500000"}`
	editedDocumentJSON = `{"id":"D1","doc_type":"resume","language":"en","status":"edited","version":2,` +
		`"created_at":"2024-05-01T10:21:02.500000","updated_at":"2024-05-01T10:25:00"}`
	profileJSON = `{"id":"P1","sectors":null,"roles":[],"skills":["Go","Kubernetes"],"summary":null,` +
		`"created_at":"2024-05-01T10:30:00.000100"}`
	companyJSON = `{"id":"C1","name":"Acme","website":null,"source_url":null,"summary":"Builds rockets.",` +
		`"focus_areas":["space"],"requirements":null,"created_at":"2024-05-01T11:00:00.250000"}`
	letterJSON = `{"id":"L1","profile_id":"P1","company_id":"C1","language":"de","tone":"technical",` +
		`"subject":null,"body":"Sehr geehrte Damen und Herren","status":"draft",` +
		`"created_at":"2024-05-01T11:05:00.000001","updated_at":"2024-05-01T11:05:00.000001"}`
	draftJSON = `{"id":"E1","letter_id":"L1","to_email":"hr@acme.test","cc":null,"bcc":null,"subject":null,` +
		`"body":"Sehr geehrte Damen und Herren","export_link":null,"created_at":"2024-05-01T11:10:00.123456"}`
	credentialJSON = `{"id":"K1","provider":"openai","created_at":"2024-05-01T09:00:00.654321"}`
)

func at(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02T15:04:05", s)
	require.NoError(t, err)
	return v
}

func TestWireShapes_AuthDecodes(t *testing.T) {
	b := newBackend(t)
	b.on(http.MethodPost, "/api/auth/login", 200, `{"message":"Login successful","token":"T1","user":`+userJSON+`}`)
	b.on(http.MethodPost, "/api/auth/signup", 201, `{"message":"User created successfully","token":"T2","user":`+userJSON+`}`)
	b.on(http.MethodGet, "/api/auth/me", 200, `{"user":`+userJSON+`}`)
	b.on(http.MethodPost, "/api/auth/logout", 200, `{"message":"Logout successful"}`)
	c := newClient(t, b, bearer("T1"))
	ctx := context.Background()

	res, err := c.Login(ctx, "jane@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "T1", res.Token)
	require.Equal(t, "Login successful", res.Message)
	require.NotNil(t, res.User.CreatedAt)
	require.True(t, at(t, "2024-05-01T10:20:30.123456").Equal(res.User.CreatedAt.Time))
	require.Equal(t, time.UTC, res.User.CreatedAt.Location())

	res, err = c.Signup(ctx, "Jane Doe", "jane@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "T2", res.Token)

	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "user", u.Role)
	require.NoError(t, c.Logout(ctx))
}

func TestWireShapes_ResumeChainDecodes(t *testing.T) {
	b := newBackend(t)
	b.on(http.MethodPost, "/api/files/upload", 201, `{"message":"File uploaded successfully","file":`+fileJSON+`}`)
	b.on(http.MethodGet, "/api/files/F1", 200, `{"file":`+fileJSON+`}`)
	b.on(http.MethodPost, "/api/ocr/run", 200, `{"message":"OCR processing completed","document":`+documentJSON+`,"text":"Jane Doe\nGo developer"}`)
	b.on(http.MethodGet, "/api/ocr/D1", 200, `{"document":`+documentJSON+`,"raw_text":"Jane Doe\nGo developer","edited_text":null}`)
	b.on(http.MethodPut, "/api/ocr/D1/edit", 200, `{"message":"Document updated successfully","document":`+editedDocumentJSON+`}`)
	b.on(http.MethodPost, "/api/resume/analyze", 200, `{"message":"Resume analyzed successfully","profile":`+profileJSON+`}`)
	b.on(http.MethodGet, "/api/resume/P1", 200, `{"profile":`+profileJSON+`}`)
	b.on(http.MethodGet, "/api/resume/list", 200, `{"profiles":[`+profileJSON+`]}`)
	c := newClient(t, b, bearer("T"))
	ctx := context.Background()

	f, err := c.Upload(ctx, "resume.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.Equal(t, "local", f.Source)
	require.Equal(t, 2024, f.CreatedAt.Year())
	f, err = c.GetFile(ctx, "F1")
	require.NoError(t, err)
	require.Equal(t, int64(4), f.Size)

	d, err := c.RunOCR(ctx, f.ID, "")
	require.NoError(t, err)
	require.Equal(t, "D1", d.ID)
	require.Equal(t, 500*time.Millisecond, time.Duration(d.UpdatedAt.Nanosecond()))

	d, err = c.GetDocument(ctx, "D1")
	require.NoError(t, err)
	require.Nil(t, d.EditedText)
	require.Equal(t, "Jane Doe\nGo developer", d.Text())

	d, err = c.EditDocument(ctx, "D1", "Jane Doe\nSenior Go developer")
	require.NoError(t, err)
	require.Equal(t, 2, d.Version)
	require.True(t, at(t, "2024-05-01T10:25:00").Equal(d.UpdatedAt.Time))

	p, err := c.AnalyzeResume(ctx, "D1", "", "")
	require.NoError(t, err)
	require.Nil(t, p.Sectors)
	require.Empty(t, p.Roles)
	require.Empty(t, p.Summary)
	require.Equal(t, []string{"Go", "Kubernetes"}, p.Skills)

	p, err = c.GetProfile(ctx, "P1")
	require.NoError(t, err)
	require.True(t, at(t, "2024-05-01T10:30:00.000100").Equal(p.CreatedAt.Time))

	ps, err := c.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	require.NotNil(t, ps[0].CreatedAt)
}

func TestWireShapes_LetterChainDecodes(t *testing.T) {
	b := newBackend(t)
	b.on(http.MethodPost, "/api/company/analyze", 200, `{"message":"Company analyzed successfully","company":`+companyJSON+`}`)
	b.on(http.MethodGet, "/api/company/list", 200, `{"companies":[`+companyJSON+`]}`)
	b.on(http.MethodPost, "/api/letter/generate", 200, `{"message":"Letter generated successfully","letter":`+letterJSON+`}`)
	b.on(http.MethodGet, "/api/letter/L1", 200, `{"letter":`+letterJSON+`}`)
	b.on(http.MethodGet, "/api/letter/list", 200, `{"letters":[`+letterJSON+`]}`)
	b.on(http.MethodPost, "/api/email/draft", 200, `{"message":"Email draft created successfully","email_draft":`+draftJSON+`,`+
		`"mailto_link":"mailto:hr@acme.test?subject=&body=Sehr%20geehrte%20Damen%20und%20Herren"}`)
	b.on(http.MethodGet, "/api/email/E1", 200, `{"email_draft":`+draftJSON+`,"mailto_link":"mailto:hr@acme.test"}`)
	b.on(http.MethodGet, "/api/email/list", 200, `{"email_drafts":[`+draftJSON+`]}`)
	b.on(http.MethodGet, "/api/settings/api-key/openai", 200, `{"exists":true,"credential":`+credentialJSON+`}`)
	c := newClient(t, b, bearer("T"))
	ctx := context.Background()

	co, err := c.AnalyzeCompany(ctx, CompanyRequest{Name: "Acme"})
	require.NoError(t, err)
	require.Empty(t, co.Website)
	require.Nil(t, co.Requirements)
	cs, err := c.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, cs, 1)

	l, err := c.GenerateLetter(ctx, LetterRequest{ProfileID: "P1", CompanyID: "C1", Language: "de", Tone: "technical"})
	require.NoError(t, err)
	require.Empty(t, l.Subject)
	require.Equal(t, "draft", l.Status)
	require.True(t, l.CreatedAt.Equal(l.UpdatedAt.Time))
	_, err = c.GetLetter(ctx, "L1")
	require.NoError(t, err)
	ls, err := c.ListLetters(ctx)
	require.NoError(t, err)
	require.Len(t, ls, 1)

	d, err := c.CreateDraft(ctx, "L1", "hr@acme.test", "", "")
	require.NoError(t, err)
	require.Empty(t, d.CC)
	require.Empty(t, d.ExportLink)
	require.Contains(t, d.MailtoLink, "mailto:hr@acme.test")
	d, err = c.GetDraft(ctx, "E1")
	require.NoError(t, err)
	require.Equal(t, "mailto:hr@acme.test", d.MailtoLink)
	ds, err := c.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, ds, 1)

	st, err := c.APIKeyStatus(ctx, "openai")
	require.NoError(t, err)
	require.Equal(t, 654321000, st.Credential.CreatedAt.Nanosecond())
}
