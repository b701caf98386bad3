package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"creators-club/internal/analysis"
	"creators-club/internal/common/config"
	"creators-club/internal/common/logger"
)

// readinessCheck reports whether one dependency answers.
type readinessCheck func(ctx context.Context) error

// route mounts one API surface on the mux.
type route interface {
	Register(mux *http.ServeMux)
}

func newMux(routes []route, checks map[string]readinessCheck, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	for _, r := range routes {
		r.Register(mux)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			log.Warn("Readiness check failed", map[string]interface{}{"failed": failed})
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "failed": failed})
			return
		}
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "ready"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// tuningFrom maps the millisecond config onto the engine tuning. Unset
// values keep the defaults.
func tuningFrom(c config.AnalysisConfig) analysis.Tuning {
	t := analysis.DefaultTuning()
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setDuration := func(dst *time.Duration, ms *int) {
		if ms != nil {
			*dst = config.GetDuration(*ms)
		}
	}

	setFloat(&t.IncrementMin, c.IncrementMin)
	setFloat(&t.IncrementMax, c.IncrementMax)
	setDuration(&t.FastDelayMin, c.FastDelayMin)
	setDuration(&t.FastDelayMax, c.FastDelayMax)
	setFloat(&t.PauseProbability, c.PauseProbability)
	setDuration(&t.PauseDelayMin, c.PauseDelayMin)
	setDuration(&t.PauseDelayMax, c.PauseDelayMax)
	setDuration(&t.SettleDelay, c.SettleDelay)
	return t
}
