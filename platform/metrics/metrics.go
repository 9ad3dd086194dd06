// Package metrics exposes the Prometheus collectors shared by the lifecycle
// and aggregation layers.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors groups every collector the application records.
type Collectors struct {
	ProbeFallbacks    *prometheus.CounterVec
	SkippedFields     *prometheus.CounterVec
	RelationMisses    *prometheus.CounterVec
	DashboardFailures *prometheus.CounterVec
	AuditGaps         prometheus.Counter
	Transitions       *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

var collectors = sync.OnceValue(func() *Collectors {
	return &Collectors{
		ProbeFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "schema",
			Name:      "probe_fallback_total",
			Help:      "Schema probes that could not determine a column set.",
		}, []string{"relation"}),
		SkippedFields: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "schema",
			Name:      "skipped_field_total",
			Help:      "Candidate fields dropped by the adaptive writer.",
		}, []string{"relation", "field"}),
		RelationMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "aggregator",
			Name:      "relation_miss_total",
			Help:      "Related-entity fetches that failed while assembling a composite view.",
		}, []string{"entity", "relation"}),
		DashboardFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "dashboard",
			Name:      "section_failure_total",
			Help:      "Dashboard sections that degraded to an empty result.",
		}, []string{"section"}),
		AuditGaps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "maintenance",
			Name:      "audit_gap_total",
			Help:      "Status changes whose history entry could not be written in the same command.",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "maintenance",
			Name:      "transition_total",
			Help:      "Maintenance request status transitions by target status.",
		}, []string{"to_status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route template and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
})

// Get returns the process-wide collectors, registering them on first use.
func Get() *Collectors {
	return collectors()
}
