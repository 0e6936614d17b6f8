package workflow

import (
	"context"
	"io"
	"sync"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
)

// fakeAPI records calls in order and fails the methods listed in fail.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error

	uploaded []byte
	edits    []string
	updates  []api.LetterUpdate
	genReq   api.LetterRequest
	docText  *string

	letter model.Letter
}

func newFake() *fakeAPI { return &fakeAPI{fail: map[string]error{}} }

func (f *fakeAPI) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) failOn(name string, err error) { f.fail[name] = err }
func (f *fakeAPI) heal(name string) { delete(f.fail, name) }

func backendErr(msg string) error {
	return &errs.Error{Kind: errs.KindResponse, Status: 500, Message: msg}
}

func (f *fakeAPI) Upload(_ context.Context, _, _ string, r io.Reader) (model.UploadedFile, error) {
	if err := f.record("upload"); err != nil {
		return model.UploadedFile{}, err
	}
	f.uploaded, _ = io.ReadAll(r)
	return model.UploadedFile{ID: "F1", FileName: "resume.pdf", MimeType: "application/pdf"}, nil
}

func (f *fakeAPI) RunOCR(_ context.Context, fileID, _ string) (model.Document, error) {
	if err := f.record("ocr:" + fileID); err != nil {
		return model.Document{}, err
	}
	return model.Document{ID: "D1", Status: "ready", RawText: "Jane Doe\nEngineer"}, nil
}

func (f *fakeAPI) GetDocument(_ context.Context, id string) (model.Document, error) {
	if err := f.record("get:" + id); err != nil {
		return model.Document{}, err
	}
	return model.Document{ID: id, RawText: "Jane Doe\nEngineer", EditedText: f.docText}, nil
}

func (f *fakeAPI) EditDocument(_ context.Context, id, text string) (model.Document, error) {
	if err := f.record("edit:" + id); err != nil {
		return model.Document{}, err
	}
	f.edits = append(f.edits, text)
	t := text
	f.docText = &t
	return model.Document{ID: id, Version: len(f.edits) + 1}, nil
}

func (f *fakeAPI) AnalyzeResume(_ context.Context, documentID, _, _ string) (model.Profile, error) {
	if err := f.record("analyze:" + documentID); err != nil {
		return model.Profile{}, err
	}
	return model.Profile{ID: "P1", Skills: []string{"Go"}}, nil
}

func (f *fakeAPI) GenerateLetter(_ context.Context, r api.LetterRequest) (model.Letter, error) {
	if err := f.record("generate"); err != nil {
		return model.Letter{}, err
	}
	f.genReq = r
	f.letter = model.Letter{
		ID: "L1", ProfileID: r.ProfileID, CompanyID: r.CompanyID,
		Language: r.Language, Tone: r.Tone, Subject: "Bewerbung", Body: "Sehr geehrte Damen und Herren", Status: model.LetterDraft,
	}
	return f.letter, nil
}

func (f *fakeAPI) GetLetter(_ context.Context, id string) (model.Letter, error) {
	if err := f.record("get-letter:" + id); err != nil {
		return model.Letter{}, err
	}
	l := f.letter
	l.ID = id
	return l, nil
}

func (f *fakeAPI) UpdateLetter(_ context.Context, id string, u api.LetterUpdate) (model.Letter, error) {
	if err := f.record("update:" + id); err != nil {
		return model.Letter{}, err
	}
	f.updates = append(f.updates, u)
	if u.Body != nil {
		f.letter.Body = *u.Body
	}
	if u.Status != nil {
		f.letter.Status = *u.Status
	}
	return f.letter, nil
}

func (f *fakeAPI) CreateDraft(_ context.Context, letterID, to, _, _ string) (model.EmailDraft, error) {
	if err := f.record("draft:" + letterID); err != nil {
		return model.EmailDraft{}, err
	}
	return model.EmailDraft{ID: "E1", LetterID: letterID, ToEmail: to, MailtoLink: "mailto:" + to}, nil
}

func (f *fakeAPI) AnalyzeCompany(_ context.Context, r api.CompanyRequest) (model.Company, error) {
	if err := f.record("company"); err != nil {
		return model.Company{}, err
	}
	return model.Company{ID: "C1", Name: r.Name}, nil
}

func (f *fakeAPI) ListProfiles(context.Context) ([]model.Profile, error) {
	if err := f.record("profiles"); err != nil {
		return nil, err
	}
	return []model.Profile{{ID: "P1"}}, nil
}

func (f *fakeAPI) ListCompanies(context.Context) ([]model.Company, error) {
	if err := f.record("companies"); err != nil {
		return nil, err
	}
	return []model.Company{{ID: "C1"}}, nil
}

func (f *fakeAPI) ListLetters(context.Context) ([]model.Letter, error) {
	if err := f.record("letters"); err != nil {
		return nil, err
	}
	return []model.Letter{{ID: "L1"}}, nil
}
