// Package wizard holds the four-step application wizard: field gating, step
// navigation and the hand-off to the analysis engine on submit.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"creators-club/internal/analysis"
	"creators-club/internal/common/logger"
	"creators-club/internal/models"
)

type Step int

const (
	StepIdentity Step = iota + 1
	StepContext
	StepGoal
	StepAnalysis
)

func (s Step) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepContext:
		return "context"
	case StepGoal:
		return "goal"
	case StepAnalysis:
		return "analysis"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

type Field string

const (
	FieldName          Field = "name"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldInstagram     Field = "instagram"
	FieldCurrentStatus Field = "currentStatus"
	FieldGoal          Field = "goal"
)

var requiredFields = map[Step][]Field{
	StepIdentity: {FieldName, FieldEmail, FieldPhone},
	StepContext:  {FieldInstagram, FieldCurrentStatus},
	StepGoal:     {FieldGoal},
}

var (
	ErrUnknownField = errors.New("unknown field")
	ErrLocked       = errors.New("wizard is locked after submission")
	ErrIncomplete   = errors.New("required fields are missing")
)

// ParseField accepts the JSON names of the draft fields.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldName, FieldEmail, FieldPhone, FieldInstagram, FieldCurrentStatus, FieldGoal:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Submitter delivers a finished draft. It has no result: implementations
// handle and log their own failures.
type Submitter interface {
	Submit(ctx context.Context, draft models.ApplicationDraft)
}

type SubmitterFunc func(ctx context.Context, draft models.ApplicationDraft)

func (f SubmitterFunc) Submit(ctx context.Context, draft models.ApplicationDraft) { f(ctx, draft) }

type Option func(*Wizard)

func WithLogger(l logger.Logger) Option { return func(w *Wizard) { w.log = l } }

// WithDispatch replaces the goroutine used to run the submitter.
func WithDispatch(d func(func())) Option { return func(w *Wizard) { w.dispatch = d } }

type Wizard struct {
	engine    *analysis.Engine
	submitter Submitter
	dispatch  func(func())
	log       logger.Logger

	mu    sync.Mutex
	step  Step
	draft models.ApplicationDraft
}

func New(engine *analysis.Engine, submitter Submitter, opts ...Option) *Wizard {
	w := &Wizard{
		engine:    engine,
		submitter: submitter,
		dispatch:  func(f func()) { go f() },
		log:       logger.NewNoOpLogger(),
		step:      StepIdentity,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Draft() models.ApplicationDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

func (w *Wizard) Analysis() analysis.Snapshot {
	return w.engine.Snapshot()
}

// SetField stores a value. Text fields are kept as typed; currentStatus must
// be one of the four statuses. All fields are frozen once submitted.
func (w *Wizard) SetField(field Field, value string) error {
	return w.SetFields(map[Field]string{field: value})
}

// SetFields stores several values at once. Nothing is stored unless every
// value is accepted.
func (w *Wizard) SetFields(values map[Field]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == StepAnalysis {
		return ErrLocked
	}

	draft := w.draft
	for field, value := range values {
		if err := applyField(&draft, field, value); err != nil {
			return err
		}
	}
	w.draft = draft
	return nil
}

func applyField(d *models.ApplicationDraft, field Field, value string) error {
	switch field {
	case FieldName:
		d.Name = value
	case FieldEmail:
		d.Email = value
	case FieldPhone:
		d.Phone = value
	case FieldInstagram:
		d.Instagram = value
	case FieldCurrentStatus:
		if strings.TrimSpace(value) == "" {
			d.CurrentStatus = ""
			return nil
		}
		status, err := models.ParseCurrentStatus(value)
		if err != nil {
			return err
		}
		d.CurrentStatus = status
	case FieldGoal:
		d.Goal = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// CanAdvance reports whether every required field of the current step is
// filled. It is always false on the analysis step.
func (w *Wizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stepCompleteLocked(w.step)
}

// Missing lists the empty required fields of the current step.
func (w *Wizard) Missing() []Field {
	w.mu.Lock()
	defer w.mu.Unlock()

	var missing []Field
	for _, f := range requiredFields[w.step] {
		if strings.TrimSpace(w.valueLocked(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Advance moves forward one step when the current step is complete. On the
// goal step it submits instead. It reports whether the step changed.
func (w *Wizard) Advance(ctx context.Context) bool {
	w.mu.Lock()
	step := w.step
	if !w.stepCompleteLocked(step) {
		w.mu.Unlock()
		return false
	}
	if step == StepGoal {
		w.mu.Unlock()
		return w.Submit(ctx) == nil
	}
	w.step++
	w.mu.Unlock()

	w.log.Debug("Wizard advanced", map[string]interface{}{"step": (step + 1).String()})
	return true
}

// Retreat moves back one step. It does nothing on the first step and after
// submission.
func (w *Wizard) Retreat() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step <= StepIdentity || w.step == StepAnalysis {
		return false
	}
	w.step--
	return true
}

// Submit locks the draft, moves to the analysis step and starts the engine,
// in that order, then hands the draft to the submitter without waiting for
// it. Submitter failures and panics never reach the caller.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.step == StepAnalysis {
		w.mu.Unlock()
		return ErrLocked
	}
	if w.step != StepGoal || !w.draftCompleteLocked() {
		w.mu.Unlock()
		return ErrIncomplete
	}
	w.step = StepAnalysis
	draft := w.draft
	w.mu.Unlock()

	w.engine.Start()

	w.log.Info("Application submitted", map[string]interface{}{
		"email":         draft.Email,
		"currentStatus": string(draft.CurrentStatus),
	})

	submitCtx := context.WithoutCancel(ctx)
	w.dispatch(func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Submission panicked", map[string]interface{}{
					"panic": fmt.Sprint(r),
					"email": draft.Email,
				})
			}
		}()
		w.submitter.Submit(submitCtx, draft)
	})
	return nil
}

func (w *Wizard) stepCompleteLocked(step Step) bool {
	fields, ok := requiredFields[step]
	if !ok {
		return false
	}
	for _, f := range fields {
		if strings.TrimSpace(w.valueLocked(f)) == "" {
			return false
		}
	}
	return true
}

func (w *Wizard) draftCompleteLocked() bool {
	for step := StepIdentity; step <= StepGoal; step++ {
		if !w.stepCompleteLocked(step) {
			return false
		}
	}
	return true
}

func (w *Wizard) valueLocked(f Field) string {
	switch f {
	case FieldName:
		return w.draft.Name
	case FieldEmail:
		return w.draft.Email
	case FieldPhone:
		return w.draft.Phone
	case FieldInstagram:
		return w.draft.Instagram
	case FieldCurrentStatus:
		return string(w.draft.CurrentStatus)
	case FieldGoal:
		return w.draft.Goal
	}
	return ""
}
