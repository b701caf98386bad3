// Package session keeps wizard instances in memory and exposes them over a
// small JSON API.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"creators-club/internal/analysis"
	"creators-club/internal/clock"
	"creators-club/internal/common/errors"
	"creators-club/internal/common/logger"
	"creators-club/internal/common/metrics"
	"creators-club/internal/common/observability"
	"creators-club/internal/models"
	"creators-club/internal/wizard"
)

type Config struct {
	// Flows maps a flow name to the URL the analysis navigates to.
	Flows  map[string]string
	TTL    time.Duration
	Tuning analysis.Tuning
}

type Option func(*Registry)

func WithClock(c clock.Clock) Option { return func(r *Registry) { r.clock = c } }

// WithRandom supplies a fresh draw source for each new session.
func WithRandom(newRandom func() analysis.Random) Option {
	return func(r *Registry) { r.newRandom = newRandom }
}

func WithLogger(l logger.Logger) Option { return func(r *Registry) { r.logger = l } }

func WithObservability(o *observability.Observability) Option {
	return func(r *Registry) { r.obs = o }
}

// WithDispatch is passed through to every wizard.
func WithDispatch(d func(func())) Option { return func(r *Registry) { r.dispatch = d } }

type Registry struct {
	cfg       Config
	submitter wizard.Submitter
	clock     clock.Clock
	newRandom func() analysis.Random
	dispatch  func(func())
	logger    logger.Logger
	obs       *observability.Observability

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(cfg Config, submitter wizard.Submitter, opts ...Option) *Registry {
	r := &Registry{
		cfg:       cfg,
		submitter: submitter,
		clock:     clock.Real(),
		logger:    logger.NewNoOpLogger(),
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cfg.Tuning == (analysis.Tuning{}) {
		r.cfg.Tuning = analysis.DefaultTuning()
	}
	return r
}

// Flows lists the configured flow names.
func (r *Registry) Flows() []string {
	names := make([]string, 0, len(r.cfg.Flows))
	for name := range r.cfg.Flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create starts a new wizard bound to flow.
func (r *Registry) Create(flow string) (*Session, error) {
	url, ok := r.cfg.Flows[flow]
	if !ok || url == "" {
		return nil, errors.NewUnknownFlowError(flow)
	}

	now := r.clock.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Flow:      flow,
		CreatedAt: now,
		lastSeen:  now,
	}
	log := r.logger.WithFields(map[string]interface{}{
		"sessionId": s.ID,
		"flow":      flow,
	})

	engineOpts := []analysis.Option{
		analysis.WithTuning(r.cfg.Tuning),
		analysis.WithClock(r.clock),
		analysis.WithLogger(log),
		analysis.WithObserver(&engineObserver{flow: flow, obs: r.obs}),
	}
	if r.newRandom != nil {
		engineOpts = append(engineOpts, analysis.WithRandom(r.newRandom()))
	}
	engine, err := analysis.New(url, analysis.NavigatorFunc(s.navigated(r.clock)), engineOpts...)
	if err != nil {
		return nil, errors.NewBusinessRuleError("Invalid analysis tuning", err.Error())
	}

	wizOpts := []wizard.Option{wizard.WithLogger(log)}
	if r.dispatch != nil {
		wizOpts = append(wizOpts, wizard.WithDispatch(r.dispatch))
	}
	s.wizard = wizard.New(engine, r.submitter, wizOpts...)

	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.WizardSessionsActive.Set(float64(n))
	log.Info("Wizard session created", nil)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewSessionNotFoundError(id)
	}
	s.touch(r.clock.Now())
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. A running analysis keeps its timers until it redirects.
func (r *Registry) Sweep() int {
	if r.cfg.TTL <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.cfg.TTL)

	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.WizardSessionsActive.Set(float64(n))
	if removed > 0 {
		r.logger.Info("Expired wizard sessions removed", map[string]interface{}{
			"removed":   removed,
			"remaining": n,
		})
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

type Session struct {
	ID        string
	Flow      string
	CreatedAt time.Time

	wizard *wizard.Wizard

	mu          sync.Mutex
	lastSeen    time.Time
	navigatedAt time.Time
}

func (s *Session) Wizard() *wizard.Wizard { return s.wizard }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) navigated(c clock.Clock) func(string) {
	return func(string) {
		s.mu.Lock()
		s.navigatedAt = c.Now()
		s.mu.Unlock()
	}
}

// View is the JSON shape of a session.
type View struct {
	ID          string                  `json:"id"`
	Flow        string                  `json:"flow"`
	Step        int                     `json:"step"`
	StepName    string                  `json:"stepName"`
	Draft       models.ApplicationDraft `json:"draft"`
	CanAdvance  bool                    `json:"canAdvance"`
	Missing     []wizard.Field          `json:"missing,omitempty"`
	Analysis    analysis.Snapshot       `json:"analysis"`
	CreatedAt   time.Time               `json:"createdAt"`
	NavigatedAt *time.Time              `json:"navigatedAt,omitempty"`
}

func (s *Session) View() View {
	w := s.wizard
	step := w.Step()
	v := View{
		ID:         s.ID,
		Flow:       s.Flow,
		Step:       int(step),
		StepName:   step.String(),
		Draft:      w.Draft(),
		CanAdvance: w.CanAdvance(),
		Missing:    w.Missing(),
		Analysis:   w.Analysis(),
		CreatedAt:  s.CreatedAt,
	}
	s.mu.Lock()
	if !s.navigatedAt.IsZero() {
		t := s.navigatedAt
		v.NavigatedAt = &t
	}
	s.mu.Unlock()
	return v
}

type engineObserver struct {
	flow string
	obs  *observability.Observability
}

func (o *engineObserver) Ticked(analysis.Snapshot, float64, time.Duration, bool) {}

func (o *engineObserver) Completed(s analysis.Snapshot) {
	metrics.AnalysisTicks.Observe(float64(s.Ticks))
	if s.StartedAt != nil && s.CompletedAt != nil {
		o.obs.RecordAnalysis(context.Background(), o.flow, s.CompletedAt.Sub(*s.StartedAt), s.Ticks)
	}
}

func (o *engineObserver) Redirected(analysis.Snapshot) {
	metrics.AnalysisRedirects.WithLabelValues(o.flow).Inc()
}
