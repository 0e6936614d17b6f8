package workflow

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
	"github.com/and161185/jobassist/internal/upload"
)

// ResumeAPI is the part of the backend the resume pipeline drives.
type ResumeAPI interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (model.UploadedFile, error)
	RunOCR(ctx context.Context, fileID, docType string) (model.Document, error)
	GetDocument(ctx context.Context, id string) (model.Document, error)
	EditDocument(ctx context.Context, id, editedText string) (model.Document, error)
	AnalyzeResume(ctx context.Context, documentID, modelName, provider string) (model.Profile, error)
}

var _ ResumeAPI = (*api.Client)(nil)

// ResumeState is a node of the resume state machine.
type ResumeState string

const (
	ResumeIdle       ResumeState = "idle"
	ResumeUploading  ResumeState = "uploading"
	ResumeProcessing ResumeState = "processing"
	ResumeReady      ResumeState = "ready"
	ResumeAnalyzing  ResumeState = "analyzing"
	ResumeFailed     ResumeState = "failed"
)

type resumeOp int

const (
	opNone resumeOp = iota
	opStart
	opSave
	opAnalyze
)

// Handoff is the terminal output of the resume pipeline: the id the next view reads.
type Handoff struct {
	ProfileID string
}

// ResumePipeline runs file -> document -> profile.
type ResumePipeline struct {
	api      ResumeAPI
	log      *zap.Logger
	track    *tracker
	model    string
	provider string

	state  ResumeState
	before ResumeState // state to return to on Retry
	failed *StageError
	op     resumeOp

	file      *upload.File
	fileID    string
	doc       model.Document
	buffer    string
	persisted bool // buffer is stored on the backend
}

// ResumeOption configures a ResumePipeline.
type ResumeOption func(*ResumePipeline)

// WithModel selects the model and provider used by Analyze.
func WithModel(modelName, provider string) ResumeOption {
	return func(p *ResumePipeline) { p.model, p.provider = modelName, provider }
}

// WithResumeObserver receives stage transitions.
func WithResumeObserver(o Observer) ResumeOption {
	return func(p *ResumePipeline) { p.track.obs = o }
}

// NewResumePipeline returns an idle pipeline.
func NewResumePipeline(c ResumeAPI, log *zap.Logger, opts ...ResumeOption) *ResumePipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &ResumePipeline{api: c, log: log, track: newTracker("resume", log, nil), state: ResumeIdle}
	for _, o := range opts {
		o(p)
	}
	return p
}

// State returns the current node.
func (p *ResumePipeline) State() ResumeState { return p.state }

// Failure returns the halt that put the pipeline in ResumeFailed, or nil.
func (p *ResumePipeline) Failure() *StageError { return p.failed }

// Progress returns a snapshot of per-stage status.
func (p *ResumePipeline) Progress() map[Stage]Status { return p.track.snapshot() }

// FileID is the uploaded file id, once known.
func (p *ResumePipeline) FileID() string { return p.fileID }

// Document is the current document; zero before OCR completes.
func (p *ResumePipeline) Document() model.Document { return p.doc }

// Buffer is the local, possibly unsaved, edit of the document text.
func (p *ResumePipeline) Buffer() string { return p.buffer }

// Select validates f locally and queues it for Start. A rejected file leaves
// the pipeline idle with nothing queued.
func (p *ResumePipeline) Select(f upload.File) error {
	if p.state != ResumeIdle {
		return invalidState("select a file", p.state)
	}
	if err := upload.Validate(f); err != nil {
		p.file = nil
		return err
	}
	p.file = &f
	return nil
}

// Start uploads the selected file and runs OCR on it.
func (p *ResumePipeline) Start(ctx context.Context) Result[model.Document] {
	if p.state != ResumeIdle {
		return reject[model.Document](invalidState("start", p.state))
	}
	if p.file == nil {
		return reject[model.Document](errs.Validation("no file selected"))
	}
	p.op = opStart
	return p.runStart(ctx)
}

func (p *ResumePipeline) runStart(ctx context.Context) Result[model.Document] {
	if p.fileID == "" {
		p.state = ResumeUploading
		f, serr := run(p.track, StageUpload, func() (model.UploadedFile, error) {
			rc, err := p.file.Open()
			if err != nil {
				return model.UploadedFile{}, errs.Validation("open %s: %v", p.file.Name, err)
			}
			defer rc.Close()
			return p.api.Upload(ctx, p.file.Name, p.file.ContentType, rc)
		})
		if serr != nil {
			return halt[model.Document](p.fail(ResumeIdle, serr))
		}
		if f.ID == "" {
			return halt[model.Document](p.fail(ResumeIdle, missingID(StageUpload, "file")))
		}
		p.fileID = f.ID
	}

	p.state = ResumeProcessing
	doc, serr := run(p.track, StageOCR, func() (model.Document, error) {
		return p.api.RunOCR(ctx, p.fileID, api.DefaultDocType)
	})
	if serr != nil {
		return halt[model.Document](p.fail(ResumeProcessing, serr))
	}
	if doc.ID == "" {
		return halt[model.Document](p.fail(ResumeProcessing, missingID(StageOCR, "document")))
	}
	doc.FileID = p.fileID
	p.enterReady(doc)
	return succeed(doc)
}

// Open enters Ready for an existing document.
func (p *ResumePipeline) Open(ctx context.Context, documentID string) Result[model.Document] {
	if documentID == "" {
		return reject[model.Document](errs.Validation("document id is required"))
	}
	if p.state != ResumeIdle && p.state != ResumeReady {
		return reject[model.Document](invalidState("open a document", p.state))
	}
	doc, serr := run(p.track, StageLoad, func() (model.Document, error) {
		return p.api.GetDocument(ctx, documentID)
	})
	if serr != nil {
		return halt[model.Document](serr)
	}
	if doc.ID == "" {
		doc.ID = documentID
	}
	p.enterReady(doc)
	return succeed(doc)
}

func (p *ResumePipeline) enterReady(doc model.Document) {
	p.doc = doc
	p.buffer = doc.Text()
	p.persisted = doc.EditedText != nil
	p.state = ResumeReady
	p.failed = nil
	p.op = opNone
}

// Edit replaces the local text buffer. Nothing is sent until Save or Analyze.
func (p *ResumePipeline) Edit(text string) error {
	if p.doc.ID == "" || (p.state != ResumeReady && p.state != ResumeFailed) {
		return invalidState("edit", p.state)
	}
	p.buffer = text
	p.persisted = false
	return nil
}

// Save persists the buffer and reloads the document from the backend.
func (p *ResumePipeline) Save(ctx context.Context) Result[model.Document] {
	if p.state != ResumeReady {
		return reject[model.Document](invalidState("save", p.state))
	}
	p.op = opSave
	p.persisted = false
	return p.runSave(ctx)
}

func (p *ResumePipeline) runSave(ctx context.Context) Result[model.Document] {
	if serr := p.persist(ctx); serr != nil {
		return halt[model.Document](p.fail(ResumeReady, serr))
	}
	doc, serr := run(p.track, StageLoad, func() (model.Document, error) {
		return p.api.GetDocument(ctx, p.doc.ID)
	})
	if serr != nil {
		return halt[model.Document](p.fail(ResumeReady, serr))
	}
	if doc.FileID == "" {
		doc.FileID = p.doc.FileID
	}
	p.doc = doc
	p.buffer = doc.Text()
	p.state, p.failed, p.op = ResumeReady, nil, opNone
	return succeed(doc)
}

// Analyze persists the buffer (always, even unchanged) and then analyzes the
// document. On success the pipeline resets and the profile id is handed off.
func (p *ResumePipeline) Analyze(ctx context.Context) Result[Handoff] {
	if p.state != ResumeReady {
		return reject[Handoff](invalidState("analyze", p.state))
	}
	p.op = opAnalyze
	p.persisted = false
	return p.runAnalyze(ctx)
}

func (p *ResumePipeline) runAnalyze(ctx context.Context) Result[Handoff] {
	if serr := p.persist(ctx); serr != nil {
		return halt[Handoff](p.fail(ResumeReady, serr))
	}
	p.state = ResumeAnalyzing
	prof, serr := run(p.track, StageAnalyze, func() (model.Profile, error) {
		return p.api.AnalyzeResume(ctx, p.doc.ID, p.model, p.provider)
	})
	if serr != nil {
		return halt[Handoff](p.fail(ResumeReady, serr))
	}
	if prof.ID == "" {
		return halt[Handoff](p.fail(ResumeReady, missingID(StageAnalyze, "profile")))
	}
	p.log.Info("resume analyzed", zap.String("document_id", p.doc.ID), zap.String("profile_id", prof.ID))
	p.Reset()
	return succeed(Handoff{ProfileID: prof.ID})
}

// persist stores the buffer unless this operation already did.
func (p *ResumePipeline) persist(ctx context.Context) *StageError {
	if p.persisted {
		return nil
	}
	doc, serr := run(p.track, StageEdit, func() (model.Document, error) {
		return p.api.EditDocument(ctx, p.doc.ID, p.buffer)
	})
	if serr != nil {
		return serr
	}
	text := p.buffer
	p.doc.EditedText = &text
	if doc.Version != 0 {
		p.doc.Version = doc.Version
	}
	p.persisted = true
	return nil
}

// Retry re-runs the failed stage with the ids already obtained, then the
// stages that remain in the same operation. The payload is a model.Document
// for Start and Save, a Handoff for Analyze.
func (p *ResumePipeline) Retry(ctx context.Context) Result[any] {
	if p.state != ResumeFailed {
		return reject[any](invalidState("retry", p.state))
	}
	p.state = p.before
	switch p.op {
	case opStart:
		return widen(p.runStart(ctx))
	case opSave:
		return widen(p.runSave(ctx))
	case opAnalyze:
		return widen(p.runAnalyze(ctx))
	}
	return reject[any](invalidState("retry", "no failed operation"))
}

// Reset drops all pipeline state.
func (p *ResumePipeline) Reset() {
	p.state, p.before, p.failed, p.op = ResumeIdle, "", nil, opNone
	p.file, p.fileID, p.doc, p.buffer, p.persisted = nil, "", model.Document{}, "", false
	p.track.reset()
}

func (p *ResumePipeline) fail(before ResumeState, serr *StageError) *StageError {
	p.before = before
	p.failed = serr
	p.state = ResumeFailed
	p.log.Debug("resume pipeline halted", zap.String("stage", string(serr.Stage)), zap.Error(serr.Err))
	return serr
}

func missingID(stage Stage, what string) *StageError {
	return &StageError{Stage: stage, Err: &errs.Error{
		Kind:    errs.KindResponse,
		Message: fmt.Sprintf("server returned no %s id", what),
	}}
}
