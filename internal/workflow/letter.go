package workflow

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
)

// Languages and Tones offered for letter generation.
var (
	Languages = []string{"en", "fr", "de", "es", "it", "pt", "nl"}
	Tones     = []string{"formal", "friendly", "enthusiastic", "technical", "concise"}
)

// LetterAPI is the part of the backend the letter pipeline drives.
type LetterAPI interface {
	GenerateLetter(ctx context.Context, r api.LetterRequest) (model.Letter, error)
	GetLetter(ctx context.Context, id string) (model.Letter, error)
	UpdateLetter(ctx context.Context, id string, u api.LetterUpdate) (model.Letter, error)
	CreateDraft(ctx context.Context, letterID, toEmail, cc, bcc string) (model.EmailDraft, error)
}

var _ LetterAPI = (*api.Client)(nil)

// LetterConfig is the generation form.
type LetterConfig struct {
	ProfileID string
	CompanyID string
	Language  string
	Tone      string
	Model     string
	Provider  string
}

func (c *LetterConfig) applyDefaults() {
	if c.Language == "" {
		c.Language = api.DefaultLanguage
	}
	if c.Tone == "" {
		c.Tone = api.DefaultTone
	}
}

// Validate checks the form locally.
func (c LetterConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ProfileID, validation.Required.Error("select a profile")),
		validation.Field(&c.CompanyID, validation.Required.Error("select a company")),
		validation.Field(&c.Language, validation.In(toAny(Languages)...)),
		validation.Field(&c.Tone, validation.In(toAny(Tones)...)),
	)
}

// Recipients addresses a draft. CC and BCC may hold comma-separated lists.
type Recipients struct {
	To  string
	CC  string
	BCC string
}

// Validate checks every non-empty address.
func (r Recipients) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.To, is.EmailFormat),
		validation.Field(&r.CC, validation.By(addressList)),
		validation.Field(&r.BCC, validation.By(addressList)),
	)
}

func addressList(v any) error {
	s, _ := v.(string)
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if err := validation.Validate(a, is.EmailFormat); err != nil {
			return err
		}
	}
	return nil
}

// LetterState is a node of the letter state machine.
type LetterState string

const (
	LetterConfiguring LetterState = "configuring"
	LetterGenerating  LetterState = "generating"
	LetterGenerated   LetterState = "generated"
	LetterDraftReady  LetterState = "draft_ready"
	LetterFailed      LetterState = "failed"
)

type letterOp int

const (
	letterOpNone letterOp = iota
	letterOpGenerate
	letterOpSave
	letterOpDraft
)

// LetterPipeline runs profile + company -> letter -> email draft.
type LetterPipeline struct {
	api   LetterAPI
	log   *zap.Logger
	track *tracker

	cfg    LetterConfig
	state  LetterState
	before LetterState
	failed *StageError
	op     letterOp

	letter     *model.Letter
	saved      string // body as last stored on the backend
	buffer     string
	draft      *model.EmailDraft
	recipients Recipients
}

// NewLetterPipeline returns a pipeline in Configuring.
func NewLetterPipeline(c LetterAPI, log *zap.Logger, obs Observer) *LetterPipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &LetterPipeline{api: c, log: log, track: newTracker("letter", log, obs), state: LetterConfiguring}
}

// State returns the current node.
func (p *LetterPipeline) State() LetterState { return p.state }

// Failure returns the current halt, or nil.
func (p *LetterPipeline) Failure() *StageError { return p.failed }

// Progress returns a snapshot of per-stage status.
func (p *LetterPipeline) Progress() map[Stage]Status { return p.track.snapshot() }

// Config returns the current form.
func (p *LetterPipeline) Config() LetterConfig { return p.cfg }

// Letter returns the current letter, if any.
func (p *LetterPipeline) Letter() (model.Letter, bool) {
	if p.letter == nil {
		return model.Letter{}, false
	}
	return *p.letter, true
}

// Draft returns the current draft, if any.
func (p *LetterPipeline) Draft() (model.EmailDraft, bool) {
	if p.draft == nil {
		return model.EmailDraft{}, false
	}
	return *p.draft, true
}

// Body returns the local body buffer.
func (p *LetterPipeline) Body() string { return p.buffer }

// Dirty reports whether the buffer differs from the last saved body.
func (p *LetterPipeline) Dirty() bool { return p.letter != nil && p.buffer != p.saved }

// Configure stores the form. It is stored even when invalid so it can be
// corrected field by field; the validation error is returned.
func (p *LetterPipeline) Configure(cfg LetterConfig) error {
	if p.state != LetterConfiguring {
		return invalidState("configure", p.state)
	}
	cfg.applyDefaults()
	p.cfg = cfg
	return errs.Invalid(cfg.Validate())
}

// Generate discards any current letter and draft and asks for a new letter.
// An invalid form fails locally without a network call.
func (p *LetterPipeline) Generate(ctx context.Context) Result[model.Letter] {
	if p.state != LetterConfiguring && p.state != LetterGenerated && p.state != LetterDraftReady {
		return reject[model.Letter](invalidState("generate", p.state))
	}
	p.cfg.applyDefaults()
	if err := errs.Invalid(p.cfg.Validate()); err != nil {
		return reject[model.Letter](err)
	}
	p.dropLetter()
	p.op = letterOpGenerate
	return p.runGenerate(ctx)
}

func (p *LetterPipeline) runGenerate(ctx context.Context) Result[model.Letter] {
	p.state = LetterGenerating
	l, serr := run(p.track, StageGenerate, func() (model.Letter, error) {
		return p.api.GenerateLetter(ctx, api.LetterRequest{
			ProfileID: p.cfg.ProfileID,
			CompanyID: p.cfg.CompanyID,
			Language:  p.cfg.Language,
			Tone:      p.cfg.Tone,
			Model:     p.cfg.Model,
			Provider:  p.cfg.Provider,
		})
	})
	if serr != nil {
		return halt[model.Letter](p.fail(LetterConfiguring, serr))
	}
	if l.ID == "" {
		return halt[model.Letter](p.fail(LetterConfiguring, missingID(StageGenerate, "letter")))
	}
	p.enterGenerated(l)
	return succeed(l)
}

// Load re-enters Generated for an existing letter.
func (p *LetterPipeline) Load(ctx context.Context, letterID string) Result[model.Letter] {
	if letterID == "" {
		return reject[model.Letter](errs.Validation("letter id is required"))
	}
	l, serr := run(p.track, StageLoad, func() (model.Letter, error) {
		return p.api.GetLetter(ctx, letterID)
	})
	if serr != nil {
		return halt[model.Letter](serr)
	}
	if l.ID == "" {
		l.ID = letterID
	}
	p.dropLetter()
	p.cfg = LetterConfig{
		ProfileID: l.ProfileID,
		CompanyID: l.CompanyID,
		Language:  l.Language,
		Tone:      l.Tone,
		Model:     p.cfg.Model,
		Provider:  p.cfg.Provider,
	}
	p.enterGenerated(l)
	return succeed(l)
}

func (p *LetterPipeline) enterGenerated(l model.Letter) {
	p.letter = &l
	p.saved = l.Body
	p.buffer = l.Body
	p.state, p.failed, p.op = LetterGenerated, nil, letterOpNone
}

// EditBody replaces the local body buffer.
func (p *LetterPipeline) EditBody(body string) error {
	if p.letter == nil {
		return invalidState("edit the body", p.state)
	}
	p.buffer = body
	return nil
}

// Save stores the buffer and marks the letter edited.
func (p *LetterPipeline) Save(ctx context.Context) Result[model.Letter] {
	if p.state != LetterGenerated && p.state != LetterDraftReady {
		return reject[model.Letter](invalidState("save", p.state))
	}
	p.op = letterOpSave
	return p.runSave(ctx)
}

func (p *LetterPipeline) runSave(ctx context.Context) Result[model.Letter] {
	from := p.state
	body, status := p.buffer, model.LetterEdited
	l, serr := run(p.track, StageSave, func() (model.Letter, error) {
		return p.api.UpdateLetter(ctx, p.letter.ID, api.LetterUpdate{Body: &body, Status: &status})
	})
	if serr != nil {
		return halt[model.Letter](p.fail(from, serr))
	}
	merged := *p.letter
	if l.ID != "" {
		merged = l
	}
	merged.Body = body
	merged.Status = model.LetterEdited
	p.letter = &merged
	p.saved = body
	p.state, p.failed, p.op = from, nil, letterOpNone
	return succeed(merged)
}

// CreateDraft prepares the email. A body that differs from the last saved one
// is stored first; if that fails no draft is requested.
func (p *LetterPipeline) CreateDraft(ctx context.Context, to Recipients) Result[model.EmailDraft] {
	if p.state != LetterGenerated && p.state != LetterDraftReady {
		return reject[model.EmailDraft](invalidState("create a draft", p.state))
	}
	if err := errs.Invalid(to.Validate()); err != nil {
		return reject[model.EmailDraft](err)
	}
	p.recipients = to
	p.op = letterOpDraft
	return p.runDraft(ctx)
}

func (p *LetterPipeline) runDraft(ctx context.Context) Result[model.EmailDraft] {
	from := p.state
	if p.buffer != p.saved {
		body := p.buffer
		l, serr := run(p.track, StageSave, func() (model.Letter, error) {
			return p.api.UpdateLetter(ctx, p.letter.ID, api.LetterUpdate{Body: &body})
		})
		if serr != nil {
			return halt[model.EmailDraft](p.fail(from, serr))
		}
		merged := *p.letter
		if l.ID != "" {
			merged = l
		}
		merged.Body = body
		p.letter = &merged
		p.saved = body
	}
	d, serr := run(p.track, StageDraft, func() (model.EmailDraft, error) {
		return p.api.CreateDraft(ctx, p.letter.ID, p.recipients.To, p.recipients.CC, p.recipients.BCC)
	})
	if serr != nil {
		return halt[model.EmailDraft](p.fail(from, serr))
	}
	p.draft = &d
	p.state, p.failed, p.op = LetterDraftReady, nil, letterOpNone
	return succeed(d)
}

// MailtoLink returns the draft's precomputed link. Opening it is the caller's job.
func (p *LetterPipeline) MailtoLink() (string, error) {
	if p.draft == nil {
		return "", invalidState("open the email", p.state)
	}
	if p.draft.MailtoLink == "" {
		return "", errs.Validation("draft has no mailto link")
	}
	return p.draft.MailtoLink, nil
}

// Regenerate discards the letter and draft locally and returns to Configuring
// with the same form. Nothing is deleted on the backend.
func (p *LetterPipeline) Regenerate() {
	p.dropLetter()
	p.state, p.before, p.failed, p.op = LetterConfiguring, "", nil, letterOpNone
	p.track.reset()
}

// Retry re-runs the failed operation from its failed stage.
func (p *LetterPipeline) Retry(ctx context.Context) Result[any] {
	if p.state != LetterFailed {
		return reject[any](invalidState("retry", p.state))
	}
	p.state = p.before
	switch p.op {
	case letterOpGenerate:
		return widen(p.runGenerate(ctx))
	case letterOpSave:
		return widen(p.runSave(ctx))
	case letterOpDraft:
		return widen(p.runDraft(ctx))
	}
	return reject[any](invalidState("retry", "no failed operation"))
}

func (p *LetterPipeline) dropLetter() {
	p.letter, p.draft = nil, nil
	p.saved, p.buffer = "", ""
}

func (p *LetterPipeline) fail(before LetterState, serr *StageError) *StageError {
	p.before = before
	p.failed = serr
	p.state = LetterFailed
	p.log.Debug("letter pipeline halted", zap.String("stage", string(serr.Stage)), zap.Error(serr.Err))
	return serr
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
