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

	DocumentsComposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_composed_total",
			Help: "Documents composed, by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	DocumentComposeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "document_compose_duration_seconds",
			Help:    "Time spent composing a document",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	DocumentBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "document_size_bytes",
			Help:    "Size of composed documents",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		},
		[]string{"kind"},
	)

	ImagesEmbedded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_images_embedded_total",
			Help: "Images embedded into documents, by source format",
		},
		[]string{"format"},
	)

	DeliveriesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_deliveries_total",
			Help: "Document deliveries by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency by route",
		},
		[]string{"route"},
	)
)
