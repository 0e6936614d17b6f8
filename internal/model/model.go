// Package model defines the backend-owned entities the client caches between stages.
package model

// Letter statuses.
const (
	LetterDraft  = "draft"
	LetterEdited = "edited"
)

// User is the authenticated identity.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	CreatedAt *Time  `json:"created_at,omitempty"`
}

// UploadedFile is created by an upload and never mutated by the client.
type UploadedFile struct {
	ID        string `json:"id"`
	Source    string `json:"source,omitempty"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	CreatedAt *Time  `json:"created_at,omitempty"`
}

// Document is the OCR result for one uploaded file.
type Document struct {
	ID        string `json:"id"`
	DocType   string `json:"doc_type"`
	Language  string `json:"language"`
	Status    string `json:"status"`
	Version   int    `json:"version"`
	CreatedAt *Time  `json:"created_at,omitempty"`
	UpdatedAt *Time  `json:"updated_at,omitempty"`

	// Filled from the envelope or by the pipeline, not part of the backend's document object.
	FileID     string  `json:"-"`
	RawText    string  `json:"-"`
	EditedText *string `json:"-"`
}

// Text returns the edited text when present, the raw text otherwise.
func (d Document) Text() string {
	if d.EditedText != nil && *d.EditedText != "" {
		return *d.EditedText
	}
	return d.RawText
}

// Profile is the structured analysis of a resume document.
type Profile struct {
	ID         string   `json:"id"`
	Summary    string   `json:"summary"`
	Sectors    []string `json:"sectors"`
	Roles      []string `json:"roles"`
	Skills     []string `json:"skills"`
	CreatedAt  *Time    `json:"created_at,omitempty"`
	DocumentID string   `json:"-"`
}

// Company is the analysis of a target employer.
type Company struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Website      string   `json:"website"`
	SourceURL    string   `json:"source_url"`
	Summary      string   `json:"summary"`
	FocusAreas   []string `json:"focus_areas"`
	Requirements []string `json:"requirements"`
	CreatedAt    *Time    `json:"created_at,omitempty"`
}

// Letter is a cover letter generated from a profile and a company.
type Letter struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	CompanyID string `json:"company_id"`
	Language  string `json:"language"`
	Tone      string `json:"tone"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Status    string `json:"status"`
	CreatedAt *Time  `json:"created_at,omitempty"`
	UpdatedAt *Time  `json:"updated_at,omitempty"`
}

// EmailDraft is a prepared email for one letter.
type EmailDraft struct {
	ID         string `json:"id"`
	LetterID   string `json:"letter_id"`
	ToEmail    string `json:"to_email"`
	CC         string `json:"cc"`
	BCC        string `json:"bcc"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	ExportLink string `json:"export_link,omitempty"`
	CreatedAt  *Time  `json:"created_at,omitempty"`
	MailtoLink string `json:"-"` // sent next to the draft in the response envelope
}

// LLMModel is one model offered by the backend.
type LLMModel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Credential describes a stored provider API key (never the key itself).
type Credential struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	CreatedAt *Time  `json:"created_at,omitempty"`
}

// APIKeyStatus reports whether a provider key is configured.
type APIKeyStatus struct {
	Exists     bool        `json:"exists"`
	Credential *Credential `json:"credential,omitempty"`
}

// Session is the persisted credential and identity.
type Session struct {
	Token string
	User  User
}
