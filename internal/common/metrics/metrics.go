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

	SourceFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieval_source_fetch_failures_total",
			Help: "Per-source fetch failures downgraded to empty results",
		},
		[]string{"source"},
	)

	FallbackRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retrieval_fallback_runs_total",
			Help: "Retrieval runs that completed with the fallback strategy",
		},
	)

	GroundingEscalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retrieval_grounding_escalations_total",
			Help: "Retrieval runs that triggered the grounding escalator",
		},
	)

	AssessmentsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_completed_total",
			Help: "Material assessments completed, labelled by decision",
		},
		[]string{"decision"},
	)
)
