package wizard

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creators-club/internal/analysis"
	"creators-club/internal/clock"
	"creators-club/internal/common/logger"
	"creators-club/internal/models"
	"creators-club/internal/submission"
)

const destination = "https://chat.whatsapp.com/4CreatorsClub"

type navigations struct {
	mu   sync.Mutex
	urls []string
}

func (n *navigations) Navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

func (n *navigations) list() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

type harness struct {
	wizard *Wizard
	clock  *clock.Fake
	nav    *navigations
	queued []func()
}

// runDispatched runs submitter calls queued by the wizard.
func (h *harness) runDispatched() {
	q := h.queued
	h.queued = nil
	for _, f := range q {
		f()
	}
}

func newHarness(t *testing.T, submitter Submitter) *harness {
	t.Helper()
	h := &harness{
		clock: clock.NewFake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)),
		nav:   &navigations{},
	}
	engine, err := analysis.New(destination, h.nav,
		analysis.WithClock(h.clock),
		analysis.WithRandom(rand.New(rand.NewPCG(42, 7))),
	)
	require.NoError(t, err)

	h.wizard = New(engine, submitter,
		WithLogger(logger.NewTestLogger(t)),
		WithDispatch(func(f func()) { h.queued = append(h.queued, f) }),
	)
	return h
}

func fill(t *testing.T, w *Wizard, values map[Field]string) {
	t.Helper()
	for f, v := range values {
		require.NoError(t, w.SetField(f, v))
	}
}

var anaDraft = models.ApplicationDraft{
	Name:          "Ana",
	Email:         "a@a.com",
	Phone:         "51999999999",
	Instagram:     "@ana",
	CurrentStatus: models.StatusIniciante,
	Goal:          "crescer",
}

func fillAna(t *testing.T, w *Wizard, ctx context.Context) {
	t.Helper()
	fill(t, w, map[Field]string{FieldName: "Ana", FieldEmail: "a@a.com", FieldPhone: "51999999999"})
	require.True(t, w.Advance(ctx))
	fill(t, w, map[Field]string{FieldInstagram: "@ana", FieldCurrentStatus: "iniciante"})
	require.True(t, w.Advance(ctx))
	fill(t, w, map[Field]string{FieldGoal: "crescer"})
}

var noopSubmitter = SubmitterFunc(func(context.Context, models.ApplicationDraft) {})

// ==========================
// Fields
// ==========================

func TestSetField_Validation(t *testing.T) {
	h := newHarness(t, noopSubmitter)
	w := h.wizard

	assert.ErrorIs(t, w.SetField("website", "x"), ErrUnknownField)
	assert.Error(t, w.SetField(FieldCurrentStatus, "expert"))
	assert.NoError(t, w.SetField(FieldCurrentStatus, "AVANCADO"))
	assert.Equal(t, models.StatusAvancado, w.Draft().CurrentStatus)

	assert.NoError(t, w.SetField(FieldCurrentStatus, ""))
	assert.Empty(t, w.Draft().CurrentStatus)
}

func TestSetFields_AllOrNothing(t *testing.T) {
	h := newHarness(t, noopSubmitter)
	w := h.wizard

	for i := 0; i < 20; i++ {
		err := w.SetFields(map[Field]string{
			FieldName:          "Ana",
			FieldEmail:         "a@a.com",
			FieldCurrentStatus: "guru",
		})
		require.Error(t, err)
		assert.Equal(t, models.ApplicationDraft{}, w.Draft())
	}

	require.NoError(t, w.SetFields(map[Field]string{
		FieldName:          "Ana",
		FieldCurrentStatus: "intermediario",
	}))
	assert.Equal(t, "Ana", w.Draft().Name)
	assert.Equal(t, models.StatusIntermediario, w.Draft().CurrentStatus)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("currentStatus")
	require.NoError(t, err)
	assert.Equal(t, FieldCurrentStatus, f)

	_, err = ParseField("current_status")
	assert.ErrorIs(t, err, ErrUnknownField)
}

// ==========================
// Navigation
// ==========================

func TestAdvance_GatedByRequiredFields(t *testing.T) {
	h := newHarness(t, noopSubmitter)
	w := h.wizard
	ctx := context.Background()

	fill(t, w, map[Field]string{FieldName: "Ana", FieldEmail: "a@a.com"})
	assert.False(t, w.CanAdvance())
	assert.Equal(t, []Field{FieldPhone}, w.Missing())
	assert.False(t, w.Advance(ctx))
	assert.Equal(t, StepIdentity, w.Step())

	require.NoError(t, w.SetField(FieldPhone, "   "))
	assert.False(t, w.Advance(ctx), "whitespace does not count as filled")

	require.NoError(t, w.SetField(FieldPhone, "51999999999"))
	assert.True(t, w.Advance(ctx))
	assert.Equal(t, StepContext, w.Step())

	assert.False(t, w.Advance(ctx))
	assert.ElementsMatch(t, []Field{FieldInstagram, FieldCurrentStatus}, w.Missing())
}

func TestRetreat(t *testing.T) {
	h := newHarness(t, noopSubmitter)
	w := h.wizard
	ctx := context.Background()

	assert.False(t, w.Retreat())
	assert.Equal(t, StepIdentity, w.Step())

	fill(t, w, map[Field]string{FieldName: "Ana", FieldEmail: "a@a.com", FieldPhone: "1"})
	require.True(t, w.Advance(ctx))
	assert.True(t, w.Retreat())
	assert.Equal(t, StepIdentity, w.Step())
	assert.Equal(t, "Ana", w.Draft().Name, "retreat keeps entered values")
}

func TestAdvance_FromGoalSubmitsAndStartsEngine(t *testing.T) {
	var got []models.ApplicationDraft
	h := newHarness(t, SubmitterFunc(func(_ context.Context, d models.ApplicationDraft) {
		got = append(got, d)
	}))
	w := h.wizard
	ctx := context.Background()

	fillAna(t, w, ctx)
	assert.Equal(t, analysis.Idle, w.Analysis().State)

	require.True(t, w.Advance(ctx))
	assert.Equal(t, StepAnalysis, w.Step())
	assert.Equal(t, analysis.Running, w.Analysis().State)
	assert.Empty(t, got, "submission is dispatched, not awaited")

	h.runDispatched()
	assert.Equal(t, []models.ApplicationDraft{anaDraft}, got)
}

func TestStepAnalysis_IsTerminal(t *testing.T) {
	h := newHarness(t, noopSubmitter)
	w := h.wizard
	ctx := context.Background()

	fillAna(t, w, ctx)
	require.NoError(t, w.Submit(ctx))

	assert.False(t, w.CanAdvance())
	assert.False(t, w.Advance(ctx))
	assert.False(t, w.Retreat())
	assert.ErrorIs(t, w.SetField(FieldGoal, "other"), ErrLocked)
	assert.ErrorIs(t, w.Submit(ctx), ErrLocked)
	assert.Equal(t, StepAnalysis, w.Step())
	assert.Len(t, h.queued, 1)
}

func TestSubmit_RequiresCompleteDraftOnGoalStep(t *testing.T) {
	h := newHarness(t, noopSubmitter)
	w := h.wizard

	assert.ErrorIs(t, w.Submit(context.Background()), ErrIncomplete)
	assert.Equal(t, StepIdentity, w.Step())
	assert.Equal(t, analysis.Idle, w.Analysis().State)
	assert.Empty(t, h.queued)
}

// ==========================
// Submission independence
// ==========================

func TestSubmit_PanickingSubmitterDoesNotAffectAnalysis(t *testing.T) {
	h := newHarness(t, SubmitterFunc(func(context.Context, models.ApplicationDraft) {
		panic("connection refused")
	}))
	w := h.wizard
	ctx := context.Background()

	fillAna(t, w, ctx)
	require.NoError(t, w.Submit(ctx))
	assert.NotPanics(t, h.runDispatched)

	h.clock.Advance(10 * time.Minute)
	s := w.Analysis()
	assert.Equal(t, analysis.Redirecting, s.State)
	assert.Equal(t, 100.0, s.Progress)
	assert.Equal(t, []string{destination}, h.nav.list())
}

func TestSubmit_DefaultDispatchRunsInBackground(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	engine, err := analysis.New(destination, &navigations{}, analysis.WithClock(clock.NewFake(time.Now())))
	require.NoError(t, err)

	w := New(engine, SubmitterFunc(func(context.Context, models.ApplicationDraft) {
		<-release
		close(done)
		panic("late failure")
	}))
	ctx, cancel := context.WithCancel(context.Background())
	fillAna(t, w, ctx)

	require.NoError(t, w.Submit(ctx))
	cancel()
	assert.Equal(t, StepAnalysis, w.Step())

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submitter never ran")
	}
}

// ==========================
// End to end with the HTTP submitter
// ==========================

func TestScenario_AnaSubmitsAndIsRedirectedOnce(t *testing.T) {
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		bodies <- b
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := submission.NewClient(srv.URL, 0, logger.NewTestLogger(t))
	h := newHarness(t, client)
	w := h.wizard
	ctx := context.Background()

	fillAna(t, w, ctx)
	require.True(t, w.Advance(ctx))
	assert.Equal(t, StepAnalysis, w.Step())

	h.runDispatched()
	var posted map[string]string
	require.NoError(t, json.Unmarshal(<-bodies, &posted))
	assert.Equal(t, map[string]string{
		"name":          "Ana",
		"email":         "a@a.com",
		"phone":         "51999999999",
		"instagram":     "@ana",
		"currentStatus": "iniciante",
		"goal":          "crescer",
	}, posted)

	for w.Analysis().State == analysis.Running {
		require.True(t, h.clock.RunNext())
	}
	assert.Empty(t, h.nav.list())

	h.clock.Advance(time.Hour)
	assert.Equal(t, []string{destination}, h.nav.list())
}
