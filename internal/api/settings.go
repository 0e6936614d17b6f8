package api

import (
	"context"
	"net/http"

	"github.com/and161185/jobassist/internal/model"
)

// Providers are the LLM vendors the backend can hold keys for.
var Providers = []string{"openai", "google", "anthropic"}

// Models lists the models the backend offers.
func (c *Client) Models(ctx context.Context) ([]model.LLMModel, error) {
	var out struct {
		Models []model.LLMModel `json:"models"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/settings/models", true, nil, &out)
	return out.Models, err
}

// SaveAPIKey stores a provider key; validate asks the backend to test it first.
func (c *Client) SaveAPIKey(ctx context.Context, provider, key string, validate bool) error {
	in := struct {
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
		Validate bool   `json:"validate"`
	}{provider, key, validate}
	return c.doJSON(ctx, http.MethodPost, "/settings/api-key", true, in, nil)
}

// APIKeyStatus reports whether a key is stored for provider.
func (c *Client) APIKeyStatus(ctx context.Context, provider string) (model.APIKeyStatus, error) {
	var out model.APIKeyStatus
	err := c.doJSON(ctx, http.MethodGet, "/settings/api-key/"+seg(provider), true, nil, &out)
	return out, err
}

// DeleteAPIKey removes the stored key for provider.
func (c *Client) DeleteAPIKey(ctx context.Context, provider string) error {
	return c.doJSON(ctx, http.MethodDelete, "/settings/api-key/"+seg(provider), true, nil, nil)
}
