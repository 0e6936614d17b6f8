// Package workflow sequences the multi-stage operations of the assistant.
//
// Each pipeline is an explicit state machine. A stage's backend call is issued
// only after its predecessor returned an id; a failure halts the pipeline at
// that stage, keeps every id obtained so far and allows Retry of that stage
// alone. Pipelines serve one user action at a time and are not safe for
// concurrent use.
package workflow

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/jobassist/internal/errs"
)

// Status is the progress of one stage.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Stage names one network operation of a pipeline.
type Stage string

const (
	StageUpload   Stage = "upload"
	StageOCR      Stage = "ocr"
	StageLoad     Stage = "load"
	StageEdit     Stage = "edit"
	StageAnalyze  Stage = "analyze"
	StageGenerate Stage = "generate"
	StageSave     Stage = "save"
	StageDraft    Stage = "draft"
	StageCompany  Stage = "company"
)

// StageError is a pipeline halt. errors.Is(err, errs.ErrPipelineHalt) holds
// and the underlying *errs.Error stays reachable through errors.As.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, errs.Message(e.Err))
}

func (e *StageError) Unwrap() []error { return []error{errs.ErrPipelineHalt, e.Err} }

// Result is the tagged outcome of a transition: a payload, or the stage that
// failed and why.
type Result[T any] struct {
	Value T
	Stage Stage // failing stage; empty on success and on local validation errors
	Err   error
}

// OK reports success.
func (r Result[T]) OK() bool { return r.Err == nil }

// Unpack returns the payload and error in the usual Go shape.
func (r Result[T]) Unpack() (T, error) { return r.Value, r.Err }

func succeed[T any](v T) Result[T] { return Result[T]{Value: v} }

func reject[T any](err error) Result[T] { return Result[T]{Err: err} }

func halt[T any](e *StageError) Result[T] { return Result[T]{Stage: e.Stage, Err: e} }

func widen[T any](r Result[T]) Result[any] {
	return Result[any]{Value: r.Value, Stage: r.Stage, Err: r.Err}
}

// Observer receives every stage transition; err is set with StatusError.
type Observer func(stage Stage, status Status, err error)

// tracker keeps per-stage status for Progress snapshots and notifies the observer.
type tracker struct {
	mu       sync.Mutex
	statuses map[Stage]Status
	obs      Observer
	log      *zap.Logger
	name     string
}

func newTracker(name string, log *zap.Logger, obs Observer) *tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &tracker{statuses: map[Stage]Status{}, obs: obs, log: log, name: name}
}

func (t *tracker) set(stage Stage, st Status, err error) {
	t.mu.Lock()
	t.statuses[stage] = st
	obs := t.obs
	t.mu.Unlock()

	if err != nil {
		t.log.Debug("stage", zap.String("pipeline", t.name), zap.String("stage", string(stage)),
			zap.String("status", string(st)), zap.Error(err))
	} else {
		t.log.Debug("stage", zap.String("pipeline", t.name), zap.String("stage", string(stage)),
			zap.String("status", string(st)))
	}
	if obs != nil {
		obs(stage, st, err)
	}
}

func (t *tracker) snapshot() map[Stage]Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Stage]Status, len(t.statuses))
	for k, v := range t.statuses {
		out[k] = v
	}
	return out
}

func (t *tracker) reset() {
	t.mu.Lock()
	t.statuses = map[Stage]Status{}
	t.mu.Unlock()
}

// run executes one stage call with status bookkeeping.
func run[T any](t *tracker, stage Stage, call func() (T, error)) (T, *StageError) {
	t.set(stage, StatusRunning, nil)
	v, err := call()
	if err != nil {
		t.set(stage, StatusError, err)
		return v, &StageError{Stage: stage, Err: err}
	}
	t.set(stage, StatusSuccess, nil)
	return v, nil
}

func invalidState(op string, state any) error {
	return fmt.Errorf("%w: cannot %s while %v", errs.ErrInvalidState, op, state)
}
