package workflow

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
)

// CompanyAPI is the part of the backend the company pipeline drives.
type CompanyAPI interface {
	AnalyzeCompany(ctx context.Context, r api.CompanyRequest) (model.Company, error)
}

var _ CompanyAPI = (*api.Client)(nil)

// CompanyState is a node of the company state machine.
type CompanyState string

const (
	CompanyConfiguring CompanyState = "configuring"
	CompanyAnalyzing   CompanyState = "analyzing"
	CompanyAnalyzed    CompanyState = "analyzed"
	CompanyFailed      CompanyState = "failed"
)

// CompanyPipeline is the single-stage company analysis.
type CompanyPipeline struct {
	api   CompanyAPI
	log   *zap.Logger
	track *tracker

	req     api.CompanyRequest
	state   CompanyState
	failed  *StageError
	company *model.Company
}

// NewCompanyPipeline returns a pipeline in Configuring.
func NewCompanyPipeline(c CompanyAPI, log *zap.Logger, obs Observer) *CompanyPipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &CompanyPipeline{api: c, log: log, track: newTracker("company", log, obs), state: CompanyConfiguring}
}

// State returns the current node.
func (p *CompanyPipeline) State() CompanyState { return p.state }

// Failure returns the current halt, or nil.
func (p *CompanyPipeline) Failure() *StageError { return p.failed }

// Progress returns a snapshot of per-stage status.
func (p *CompanyPipeline) Progress() map[Stage]Status { return p.track.snapshot() }

// Configure stores the form and validates it.
func (p *CompanyPipeline) Configure(r api.CompanyRequest) error {
	if p.state != CompanyConfiguring && p.state != CompanyAnalyzed {
		return invalidState("configure", p.state)
	}
	p.req = r
	p.company = nil
	p.state = CompanyConfiguring
	return errs.Invalid(validateCompany(r))
}

func validateCompany(r api.CompanyRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("company name is required")),
		validation.Field(&r.Website, is.URL),
		validation.Field(&r.JobURL, is.URL),
	)
}

// Analyze runs the analysis for the configured company.
func (p *CompanyPipeline) Analyze(ctx context.Context) Result[model.Company] {
	if p.state != CompanyConfiguring {
		return reject[model.Company](invalidState("analyze", p.state))
	}
	if err := errs.Invalid(validateCompany(p.req)); err != nil {
		return reject[model.Company](err)
	}
	return p.runAnalyze(ctx)
}

func (p *CompanyPipeline) runAnalyze(ctx context.Context) Result[model.Company] {
	p.state = CompanyAnalyzing
	c, serr := run(p.track, StageCompany, func() (model.Company, error) {
		return p.api.AnalyzeCompany(ctx, p.req)
	})
	if serr == nil && c.ID == "" {
		serr = missingID(StageCompany, "company")
	}
	if serr != nil {
		p.failed, p.state = serr, CompanyFailed
		return halt[model.Company](serr)
	}
	p.company, p.failed, p.state = &c, nil, CompanyAnalyzed
	return succeed(c)
}

// Retry repeats the analysis with the same form.
func (p *CompanyPipeline) Retry(ctx context.Context) Result[model.Company] {
	if p.state != CompanyFailed {
		return reject[model.Company](invalidState("retry", p.state))
	}
	return p.runAnalyze(ctx)
}

// Reset clears the form and result.
func (p *CompanyPipeline) Reset() {
	p.req, p.company, p.failed, p.state = api.CompanyRequest{}, nil, nil, CompanyConfiguring
	p.track.reset()
}
