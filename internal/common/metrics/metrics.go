// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// outcome: accepted, rejected, error
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Application drafts posted by the wizard, by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wizard_submission_duration_seconds",
			Help:    "Time to deliver a draft to the intake endpoint",
			Buckets: prometheus.DefBuckets,
		},
	)

	WizardSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_sessions_active",
			Help: "Wizard sessions held in memory",
		},
	)

	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_total",
			Help: "Wizard navigation calls by action and whether the step changed",
		},
		[]string{"flow", "action", "moved"},
	)

	AnalysisRedirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_redirects_total",
			Help: "Completed analyses that navigated to their destination",
		},
		[]string{"flow"},
	)

	AnalysisTicks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_ticks",
			Help:    "Ticks needed to reach 100 percent",
			Buckets: prometheus.LinearBuckets(50, 10, 16),
		},
	)

	// outcome: accepted, duplicate, invalid, failed
	IntakeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_requests_total",
			Help: "Applications received by the intake endpoint",
		},
		[]string{"outcome"},
	)
)
