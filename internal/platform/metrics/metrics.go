package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ComplaintsCreated      prometheus.Counter
	StatusTransitions      *prometheus.CounterVec
	VerificationsSubmitted *prometheus.CounterVec
	ComplaintsForwarded    prometheus.Counter
	NotifyFailures         prometheus.Counter
	RequestDuration        *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ComplaintsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civicfix_complaints_created_total",
			Help: "Total number of complaints registered by citizens",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civicfix_status_transitions_total",
			Help: "Total admin status transitions by resulting status",
		}, []string{"status"}),
		VerificationsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civicfix_verifications_submitted_total",
			Help: "Total owner verifications by outcome (confirmed/rejected)",
		}, []string{"outcome"}),
		ComplaintsForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civicfix_complaints_forwarded_total",
			Help: "Total complaints forwarded to department addresses",
		}),
		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civicfix_notify_failures_total",
			Help: "Total best-effort status notifications that failed to send",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civicfix_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
