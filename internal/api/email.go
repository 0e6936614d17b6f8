package api

import (
	"context"
	"net/http"

	"github.com/and161185/jobassist/internal/model"
)

// DraftUpdate is a partial draft edit; nil fields are not sent.
type DraftUpdate struct {
	ToEmail *string `json:"to_email,omitempty"`
	CC      *string `json:"cc,omitempty"`
	BCC     *string `json:"bcc,omitempty"`
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
}

type draftEnvelope struct {
	Draft      model.EmailDraft `json:"email_draft"`
	MailtoLink string           `json:"mailto_link"`
}

func (e draftEnvelope) draft() model.EmailDraft {
	d := e.Draft
	if e.MailtoLink != "" {
		d.MailtoLink = e.MailtoLink
	}
	return d
}

// CreateDraft prepares an email for a letter.
func (c *Client) CreateDraft(ctx context.Context, letterID, toEmail, cc, bcc string) (model.EmailDraft, error) {
	var out draftEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/email/draft", true, map[string]string{
		"letter_id": letterID,
		"to_email":  toEmail,
		"cc":        cc,
		"bcc":       bcc,
	}, &out)
	return out.draft(), err
}

// GetDraft returns one draft with its mailto link.
func (c *Client) GetDraft(ctx context.Context, id string) (model.EmailDraft, error) {
	var out draftEnvelope
	err := c.doJSON(ctx, http.MethodGet, "/email/"+seg(id), true, nil, &out)
	return out.draft(), err
}

// UpdateDraft applies a partial edit.
func (c *Client) UpdateDraft(ctx context.Context, id string, u DraftUpdate) (model.EmailDraft, error) {
	var out draftEnvelope
	err := c.doJSON(ctx, http.MethodPut, "/email/"+seg(id), true, u, &out)
	return out.draft(), err
}

// ListDrafts returns the user's drafts.
func (c *Client) ListDrafts(ctx context.Context) ([]model.EmailDraft, error) {
	var out struct {
		Drafts []model.EmailDraft `json:"email_drafts"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/email/list", true, nil, &out)
	return out.Drafts, err
}
