// Package analysis runs the simulated profile analysis shown after an
// application is submitted: a self-rescheduling progress ticker that ends in
// exactly one navigation to the flow's destination.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"creators-club/internal/clock"
	"creators-club/internal/common/logger"
)

// State of an Engine. Transitions only move forward.
type State int

const (
	Idle State = iota
	Running
	Complete
	Redirecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Complete:
		return "complete"
	case Redirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "running":
		*s = Running
	case "complete":
		*s = Complete
	case "redirecting":
		*s = Redirecting
	default:
		return fmt.Errorf("unknown analysis state %q", b)
	}
	return nil
}

// Navigator performs the final full-page navigation.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

func (f NavigatorFunc) Navigate(url string) { f(url) }

// Observer receives engine events after the engine lock is released.
type Observer interface {
	Ticked(s Snapshot, delta float64, next time.Duration, paused bool)
	Completed(s Snapshot)
	Redirected(s Snapshot)
}

type nopObserver struct{}

func (nopObserver) Ticked(Snapshot, float64, time.Duration, bool) {}
func (nopObserver) Completed(Snapshot)                            {}
func (nopObserver) Redirected(Snapshot)                           {}

// Snapshot is a consistent read of the engine.
type Snapshot struct {
	State       State      `json:"state"`
	Progress    float64    `json:"progress"`
	Step        int        `json:"step"`
	Label       string     `json:"label"`
	Ticks       int        `json:"ticks"`
	RedirectURL string     `json:"redirectUrl,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

var (
	ErrMissingRedirectURL = errors.New("redirect url is required")
	ErrMissingNavigator   = errors.New("navigator is required")
)

type Option func(*Engine)

func WithTuning(t Tuning) Option { return func(e *Engine) { e.tuning = t } }

func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithRandom injects the draw source. A *rand.Rand is not safe for concurrent
// use, but the engine only draws under its own lock.
func WithRandom(r Random) Option { return func(e *Engine) { e.rand = r } }

func WithLogger(l logger.Logger) Option { return func(e *Engine) { e.log = l } }

func WithObserver(o Observer) Option { return func(e *Engine) { e.obs = o } }

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Engine is one run of the analysis. It cannot be restarted; build a new
// Engine for a new wizard.
type Engine struct {
	tuning      Tuning
	clock       clock.Clock
	rand        Random
	nav         Navigator
	redirectURL string
	log         logger.Logger
	obs         Observer

	mu          sync.Mutex
	state       State
	progress    float64
	ticks       int
	startedAt   time.Time
	completedAt time.Time
}

func New(redirectURL string, nav Navigator, opts ...Option) (*Engine, error) {
	if redirectURL == "" {
		return nil, ErrMissingRedirectURL
	}
	if nav == nil {
		return nil, ErrMissingNavigator
	}

	e := &Engine{
		tuning:      DefaultTuning(),
		clock:       clock.Real(),
		rand:        globalRand{},
		nav:         nav,
		redirectURL: redirectURL,
		log:         logger.NewNoOpLogger(),
		obs:         nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.tuning.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Start moves Idle to Running and schedules the first tick one sampled delay
// out. Any later call returns false and does nothing.
func (e *Engine) Start() bool {
	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		return false
	}
	e.state = Running
	e.startedAt = e.clock.Now()
	delay, paused := e.tuning.nextDelay(e.rand)
	e.clock.AfterFunc(delay, e.tick)
	e.mu.Unlock()

	e.log.Info("Analysis started", map[string]interface{}{
		"firstTickIn": delay.String(),
		"paused":      paused,
	})
	return true
}

func (e *Engine) tick() {
	e.mu.Lock()
	if e.state != Running {
		e.mu.Unlock()
		return
	}

	before := e.progress
	e.progress = math.Min(100, e.progress+e.tuning.nextIncrement(e.rand))
	e.ticks++
	delta := e.progress - before

	if e.progress >= 100 {
		e.state = Complete
		e.completedAt = e.clock.Now()
		e.clock.AfterFunc(e.tuning.SettleDelay, e.redirect)
		snap := e.snapshotLocked()
		e.mu.Unlock()

		e.log.Info("Analysis complete", map[string]interface{}{
			"ticks":   snap.Ticks,
			"elapsed": e.completedAt.Sub(e.startedAt).String(),
		})
		e.obs.Ticked(snap, delta, e.tuning.SettleDelay, false)
		e.obs.Completed(snap)
		return
	}

	delay, paused := e.tuning.nextDelay(e.rand)
	e.clock.AfterFunc(delay, e.tick)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if paused {
		e.log.Debug("Analysis pausing", map[string]interface{}{
			"progress": snap.Progress,
			"delay":    delay.String(),
		})
	}
	e.obs.Ticked(snap, delta, delay, paused)
}

func (e *Engine) redirect() {
	e.mu.Lock()
	if e.state != Complete {
		e.mu.Unlock()
		return
	}
	e.state = Redirecting
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.log.Info("Redirecting", map[string]interface{}{
		"url": e.redirectURL,
	})
	e.nav.Navigate(e.redirectURL)
	e.obs.Redirected(snap)
}

// Snapshot returns the current state. The label always matches the progress
// value in the same snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		State:    e.state,
		Progress: e.progress,
		Step:     StepFor(e.progress),
		Label:    LabelFor(e.progress),
		Ticks:    e.ticks,
	}
	if e.state == Redirecting {
		s.RedirectURL = e.redirectURL
	}
	if !e.startedAt.IsZero() {
		t := e.startedAt
		s.StartedAt = &t
	}
	if !e.completedAt.IsZero() {
		t := e.completedAt
		s.CompletedAt = &t
	}
	return s
}
