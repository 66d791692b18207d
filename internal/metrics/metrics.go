package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	WebhooksReceived   prometheus.Counter
	EmailsProcessed    prometheus.Counter
	CandidateSuccesses prometheus.Counter
	CandidateFailures  prometheus.Counter
	ProcessingTime     prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		WebhooksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lazy_receipt_webhooks_received",
			Help: "Total number of webhook notifications received",
		}),
		EmailsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lazy_receipt_emails_processed",
			Help: "Total number of emails run through the pipeline",
		}),
		CandidateSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lazy_receipt_candidate_successes",
			Help: "Total number of candidates processed successfully",
		}),
		CandidateFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lazy_receipt_candidate_failures",
			Help: "Total number of candidates that failed processing",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lazy_receipt_processing_duration_seconds",
			Help:    "Time spent processing one email",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
