package api

import (
	"context"
	"net/http"

	"github.com/and161185/jobassist/internal/model"
)

// CompanyRequest starts a company analysis.
type CompanyRequest struct {
	Name     string `json:"name"`
	Website  string `json:"website,omitempty"`
	JobURL   string `json:"job_url,omitempty"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// CompanyUpdate is a partial company edit; nil fields are not sent.
type CompanyUpdate struct {
	Name         *string   `json:"name,omitempty"`
	Website      *string   `json:"website,omitempty"`
	SourceURL    *string   `json:"source_url,omitempty"`
	Summary      *string   `json:"summary,omitempty"`
	FocusAreas   *[]string `json:"focus_areas,omitempty"`
	Requirements *[]string `json:"requirements,omitempty"`
}

type companyEnvelope struct {
	Company model.Company `json:"company"`
}

// AnalyzeCompany researches a company.
func (c *Client) AnalyzeCompany(ctx context.Context, r CompanyRequest) (model.Company, error) {
	r.Model = orDefault(r.Model, DefaultModel)
	r.Provider = orDefault(r.Provider, DefaultProvider)
	var out companyEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/company/analyze", true, r, &out)
	return out.Company, err
}

// GetCompany returns one company.
func (c *Client) GetCompany(ctx context.Context, id string) (model.Company, error) {
	var out companyEnvelope
	err := c.doJSON(ctx, http.MethodGet, "/company/"+seg(id), true, nil, &out)
	return out.Company, err
}

// UpdateCompany applies a partial edit.
func (c *Client) UpdateCompany(ctx context.Context, id string, u CompanyUpdate) (model.Company, error) {
	var out companyEnvelope
	err := c.doJSON(ctx, http.MethodPut, "/company/"+seg(id), true, u, &out)
	return out.Company, err
}

// ListCompanies returns the user's companies.
func (c *Client) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var out struct {
		Companies []model.Company `json:"companies"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/company/list", true, nil, &out)
	return out.Companies, err
}
