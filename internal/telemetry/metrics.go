// internal/telemetry/metrics.go
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	WorkflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "workflow_runs_total",
		Help:      "Workflow executions by workflow and outcome.",
	}, []string{"workflow", "outcome"})

	QueueMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "queue_messages_total",
		Help:      "Queue operations by queue and operation (enqueue, processed, released, dead_lettered, empty).",
	}, []string{"queue", "operation"})

	LogWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "log_writes_total",
		Help:      "Log store appends by category and outcome.",
	}, []string{"category", "outcome"})
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
