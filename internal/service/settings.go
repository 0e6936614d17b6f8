package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
)

// SettingsAPI is the settings resource group.
type SettingsAPI interface {
	Models(ctx context.Context) ([]model.LLMModel, error)
	SaveAPIKey(ctx context.Context, provider, key string, validate bool) error
	APIKeyStatus(ctx context.Context, provider string) (model.APIKeyStatus, error)
	DeleteAPIKey(ctx context.Context, provider string) error
}

// ProviderStatus is one row of the settings overview.
type ProviderStatus struct {
	Provider   string
	Configured bool
	Credential *model.Credential
}

// Overview is the settings page content.
type Overview struct {
	Models    []model.LLMModel
	Providers []ProviderStatus
}

// SettingsService reads and edits provider keys.
type SettingsService struct {
	api SettingsAPI
	log *zap.Logger
}

// NewSettingsService constructs SettingsService.
func NewSettingsService(c SettingsAPI, log *zap.Logger) *SettingsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsService{api: c, log: log}
}

// Overview loads the model list and each provider's key status. A status
// that cannot be read is shown as not configured.
func (s *SettingsService) Overview(ctx context.Context) (Overview, error) {
	models, err := s.api.Models(ctx)
	if err != nil {
		return Overview{}, err
	}
	out := Overview{Models: models}
	for _, p := range api.Providers {
		st, err := s.api.APIKeyStatus(ctx, p)
		if err != nil {
			if errs.KindOf(err) == errs.KindCanceled {
				return Overview{}, err
			}
			s.log.Debug("key status unavailable", zap.String("provider", p), zap.Error(err))
			out.Providers = append(out.Providers, ProviderStatus{Provider: p})
			continue
		}
		out.Providers = append(out.Providers, ProviderStatus{Provider: p, Configured: st.Exists, Credential: st.Credential})
	}
	return out, nil
}

// SaveKey stores key for provider, optionally asking the backend to test it.
func (s *SettingsService) SaveKey(ctx context.Context, provider, key string, validate bool) error {
	if err := checkProvider(provider); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errs.Validation("API key is required")
	}
	return s.api.SaveAPIKey(ctx, provider, key, validate)
}

// Status returns one provider's key status.
func (s *SettingsService) Status(ctx context.Context, provider string) (model.APIKeyStatus, error) {
	if err := checkProvider(provider); err != nil {
		return model.APIKeyStatus{}, err
	}
	return s.api.APIKeyStatus(ctx, provider)
}

// DeleteKey removes provider's key.
func (s *SettingsService) DeleteKey(ctx context.Context, provider string) error {
	if err := checkProvider(provider); err != nil {
		return err
	}
	return s.api.DeleteAPIKey(ctx, provider)
}

func checkProvider(p string) error {
	for _, known := range api.Providers {
		if p == known {
			return nil
		}
	}
	return errs.Validation("unknown provider %q (want one of %s)", p, strings.Join(api.Providers, ", "))
}
