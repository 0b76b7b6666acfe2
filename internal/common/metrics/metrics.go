package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvidenceQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evidence_query_duration_seconds",
			Help:    "Duration of a single evidence-kind query in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "scope"},
	)

	EvidenceQueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_query_failures_total",
			Help: "Evidence queries that failed and were replaced by empty evidence",
		},
		[]string{"kind"},
	)

	EvidenceRowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_rows_skipped_total",
			Help: "Evidence rows that could not be decoded and were skipped",
		},
		[]string{"kind"},
	)

	OnboardingStageTenants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "onboarding_stage_tenants",
			Help: "Tenants per inferred onboarding stage at the last evaluation",
		},
		[]string{"scope", "stage"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served by the back-office API",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

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
)
