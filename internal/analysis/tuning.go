package analysis

import (
	"fmt"
	"time"
)

// Tuning holds every constant that shapes the simulated analysis.
type Tuning struct {
	// Each tick adds U[IncrementMin, IncrementMax] to progress.
	IncrementMin float64
	IncrementMax float64

	// Usual delay between ticks.
	FastDelayMin time.Duration
	FastDelayMax time.Duration

	// With PauseProbability a tick waits U[PauseDelayMin, PauseDelayMax]
	// instead, the "thinking" stall.
	PauseProbability float64
	PauseDelayMin    time.Duration
	PauseDelayMax    time.Duration

	// Wait between reaching 100 and navigating away.
	SettleDelay time.Duration
}

// DefaultTuning is the canonical tuning of the onboarding analysis.
func DefaultTuning() Tuning {
	return Tuning{
		IncrementMin:     0.5,
		IncrementMax:     2.0,
		FastDelayMin:     20 * time.Millisecond,
		FastDelayMax:     150 * time.Millisecond,
		PauseProbability: 0.08,
		PauseDelayMin:    400 * time.Millisecond,
		PauseDelayMax:    1500 * time.Millisecond,
		SettleDelay:      time.Second,
	}
}

// Validate rejects tunings that could stall or run backwards.
func (t Tuning) Validate() error {
	if t.IncrementMin <= 0 {
		return fmt.Errorf("increment min must be positive, got %v", t.IncrementMin)
	}
	if t.IncrementMax < t.IncrementMin {
		return fmt.Errorf("increment range [%v, %v] is inverted", t.IncrementMin, t.IncrementMax)
	}
	if t.FastDelayMin < 0 || t.FastDelayMax < t.FastDelayMin {
		return fmt.Errorf("fast delay range [%v, %v] is invalid", t.FastDelayMin, t.FastDelayMax)
	}
	if t.PauseProbability < 0 || t.PauseProbability > 1 {
		return fmt.Errorf("pause probability %v outside [0, 1]", t.PauseProbability)
	}
	if t.PauseDelayMin < 0 || t.PauseDelayMax < t.PauseDelayMin {
		return fmt.Errorf("pause delay range [%v, %v] is invalid", t.PauseDelayMin, t.PauseDelayMax)
	}
	if t.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative, got %v", t.SettleDelay)
	}
	return nil
}

// Random is the source of uniform [0, 1) draws. *rand.Rand from math/rand/v2
// satisfies it.
type Random interface {
	Float64() float64
}

func uniform(r Random, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func uniformDuration(r Random, lo, hi time.Duration) time.Duration {
	return lo + time.Duration(r.Float64()*float64(hi-lo))
}

// nextIncrement draws one progress increment.
func (t Tuning) nextIncrement(r Random) float64 {
	return uniform(r, t.IncrementMin, t.IncrementMax)
}

// nextDelay draws the wait before the following tick. The pause decision
// consumes one draw and the duration another.
func (t Tuning) nextDelay(r Random) (time.Duration, bool) {
	if r.Float64() < t.PauseProbability {
		return uniformDuration(r, t.PauseDelayMin, t.PauseDelayMax), true
	}
	return uniformDuration(r, t.FastDelayMin, t.FastDelayMax), false
}
