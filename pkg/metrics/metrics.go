package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	ValidationFailureCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_failure_count",
			Help: "Total number of rejected writes by validation kind",
		},
		[]string{"kind"}, // kind: timeline, budget, allocation, split, name
	)

	AllocationConflictCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_conflict_count",
			Help: "Total number of allocation ceiling violations detected",
		},
		[]string{"entity"}, // entity: resource, worker
	)

	PhaseTimelineChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phase_timeline_check_count",
			Help: "Total number of phase timeline validations",
		},
		[]string{"result"}, // result: valid, invalid
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func IncrementValidationFailure(kind string) {
	ValidationFailureCount.WithLabelValues(kind).Inc()
}

func IncrementAllocationConflict(entity string) {
	AllocationConflictCount.WithLabelValues(entity).Inc()
}

func IncrementTimelineCheck(valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	PhaseTimelineChecks.WithLabelValues(result).Inc()
}
