// Package metrics exposes Prometheus collectors for the credit ledger and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "credit_engine"

// Ledger holds the business counters. All collectors are safe for concurrent use.
type Ledger struct {
	CreditsCreated   prometheus.Counter
	CreditsRemoved   prometheus.Counter
	CreditsCompleted prometheus.Counter
	PaymentsApplied  prometheus.Counter
	AmountApplied    prometheus.Counter
	PaymentsRejected *prometheus.CounterVec

	RequestDuration *prometheus.HistogramVec
}

// NewLedger registers every collector on reg.
func NewLedger(reg prometheus.Registerer) *Ledger {
	factory := promauto.With(reg)

	return &Ledger{
		CreditsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_created_total",
			Help:      "Number of credits created.",
		}),
		CreditsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_removed_total",
			Help:      "Number of credits removed together with their payments.",
		}),
		CreditsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_completed_total",
			Help:      "Number of credits moved to completed by the settlement job.",
		}),
		PaymentsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_applied_total",
			Help:      "Number of payments recorded against credits.",
		}),
		AmountApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_amount_total",
			Help:      "Sum of recorded payment amounts.",
		}),
		PaymentsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_rejected_total",
			Help:      "Payments refused, by error code.",
		}, []string{"code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}
