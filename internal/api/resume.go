package api

import (
	"context"
	"net/http"

	"github.com/and161185/jobassist/internal/model"
)

// ProfileUpdate is a partial profile edit; nil fields are not sent.
type ProfileUpdate struct {
	Summary *string   `json:"summary,omitempty"`
	Sectors *[]string `json:"sectors,omitempty"`
	Roles   *[]string `json:"roles,omitempty"`
	Skills  *[]string `json:"skills,omitempty"`
}

type profileEnvelope struct {
	Profile model.Profile `json:"profile"`
}

// AnalyzeResume builds a profile from a document.
func (c *Client) AnalyzeResume(ctx context.Context, documentID, modelName, provider string) (model.Profile, error) {
	var out profileEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/resume/analyze", true, map[string]string{
		"document_id": documentID,
		"model":       orDefault(modelName, DefaultModel),
		"provider":    orDefault(provider, DefaultProvider),
	}, &out)
	if err != nil {
		return model.Profile{}, err
	}
	p := out.Profile
	p.DocumentID = documentID
	return p, nil
}

// GetProfile returns one profile.
func (c *Client) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	var out profileEnvelope
	err := c.doJSON(ctx, http.MethodGet, "/resume/"+seg(id), true, nil, &out)
	return out.Profile, err
}

// UpdateProfile applies a partial edit.
func (c *Client) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (model.Profile, error) {
	var out profileEnvelope
	err := c.doJSON(ctx, http.MethodPut, "/resume/"+seg(id), true, u, &out)
	return out.Profile, err
}

// ListProfiles returns the user's profiles.
func (c *Client) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	var out struct {
		Profiles []model.Profile `json:"profiles"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/resume/list", true, nil, &out)
	return out.Profiles, err
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
