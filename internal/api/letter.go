package api

import (
	"context"
	"net/http"

	"github.com/and161185/jobassist/internal/model"
)

// LetterRequest asks for a new cover letter.
type LetterRequest struct {
	ProfileID string `json:"profile_id"`
	CompanyID string `json:"company_id"`
	Language  string `json:"language"`
	Tone      string `json:"tone"`
	Model     string `json:"model"`
	Provider  string `json:"provider"`
}

// LetterUpdate is a partial letter edit; nil fields are not sent.
type LetterUpdate struct {
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
	Status  *string `json:"status,omitempty"`
}

type letterEnvelope struct {
	Letter model.Letter `json:"letter"`
}

// GenerateLetter creates a letter for a profile and a company.
func (c *Client) GenerateLetter(ctx context.Context, r LetterRequest) (model.Letter, error) {
	r.Language = orDefault(r.Language, DefaultLanguage)
	r.Tone = orDefault(r.Tone, DefaultTone)
	r.Model = orDefault(r.Model, DefaultModel)
	r.Provider = orDefault(r.Provider, DefaultProvider)
	var out letterEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/letter/generate", true, r, &out)
	return out.Letter, err
}

// GetLetter returns one letter.
func (c *Client) GetLetter(ctx context.Context, id string) (model.Letter, error) {
	var out letterEnvelope
	err := c.doJSON(ctx, http.MethodGet, "/letter/"+seg(id), true, nil, &out)
	return out.Letter, err
}

// UpdateLetter applies a partial edit.
func (c *Client) UpdateLetter(ctx context.Context, id string, u LetterUpdate) (model.Letter, error) {
	var out letterEnvelope
	err := c.doJSON(ctx, http.MethodPut, "/letter/"+seg(id), true, u, &out)
	return out.Letter, err
}

// ListLetters returns the user's letters.
func (c *Client) ListLetters(ctx context.Context) ([]model.Letter, error) {
	var out struct {
		Letters []model.Letter `json:"letters"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/letter/list", true, nil, &out)
	return out.Letters, err
}
