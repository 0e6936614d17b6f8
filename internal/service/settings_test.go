package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
)

type fakeSettings struct {
	models   []model.LLMModel
	statuses map[string]model.APIKeyStatus
	statErr  map[string]error
	saved    map[string]string
	deleted  []string
}

var _ SettingsAPI = (*fakeSettings)(nil)

func (f *fakeSettings) Models(context.Context) ([]model.LLMModel, error) { return f.models, nil }
func (f *fakeSettings) SaveAPIKey(_ context.Context, p, k string, _ bool) error {
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[p] = k
	return nil
}
func (f *fakeSettings) APIKeyStatus(_ context.Context, p string) (model.APIKeyStatus, error) {
	if err := f.statErr[p]; err != nil {
		return model.APIKeyStatus{}, err
	}
	return f.statuses[p], nil
}
func (f *fakeSettings) DeleteAPIKey(_ context.Context, p string) error {
	f.deleted = append(f.deleted, p)
	return nil
}

func TestOverview_FailedStatusIsNotConfigured(t *testing.T) {
	f := &fakeSettings{
		models: []model.LLMModel{{ID: "gpt-4.1-mini", Provider: "openai"}},
		statuses: map[string]model.APIKeyStatus{
			"openai": {Exists: true, Credential: &model.Credential{ID: "K1", Provider: "openai"}},
		},
		statErr: map[string]error{"google": &errs.Error{Kind: errs.KindResponse, Status: 500, Message: "boom"}},
	}
	svc := NewSettingsService(f, zaptest.NewLogger(t))

	ov, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, ov.Models, 1)
	require.Equal(t, []ProviderStatus{
		{Provider: "openai", Configured: true, Credential: &model.Credential{ID: "K1", Provider: "openai"}},
		{Provider: "google"},
		{Provider: "anthropic"},
	}, ov.Providers)
}

func TestSaveKey_Validation(t *testing.T) {
	f := &fakeSettings{}
	svc := NewSettingsService(f, zaptest.NewLogger(t))
	ctx := context.Background()

	require.ErrorIs(t, svc.SaveKey(ctx, "openai", "  ", true), errs.ErrValidation)
	require.ErrorIs(t, svc.SaveKey(ctx, "mistral", "k", true), errs.ErrValidation)
	require.Empty(t, f.saved)

	require.NoError(t, svc.SaveKey(ctx, "openai", " sk-1 ", false))
	require.Equal(t, "sk-1", f.saved["openai"])

	require.NoError(t, svc.DeleteKey(ctx, "anthropic"))
	require.Equal(t, []string{"anthropic"}, f.deleted)
}
