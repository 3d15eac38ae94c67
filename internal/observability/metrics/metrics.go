// Package metrics exposes prometheus instruments for the billing engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type BillingMetrics struct {
	InvoicesGenerated   *prometheus.CounterVec
	GenerationDuration  prometheus.Histogram
	AggregationDuration prometheus.Histogram
	LifecycleDenied     prometheus.Counter
}

func New() *BillingMetrics {
	return &BillingMetrics{
		InvoicesGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ajyal",
			Subsystem: "billing",
			Name:      "invoices_generated_total",
			Help:      "Monthly invoice generation attempts by outcome.",
		}, []string{"outcome"}),
		GenerationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ajyal",
			Subsystem: "billing",
			Name:      "invoice_generation_seconds",
			Help:      "Wall time of the generate-monthly transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
		AggregationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ajyal",
			Subsystem: "billing",
			Name:      "timesheet_aggregation_seconds",
			Help:      "Wall time of monthly timesheet aggregation.",
			Buckets:   prometheus.DefBuckets,
		}),
		LifecycleDenied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "ajyal",
			Subsystem: "billing",
			Name:      "lifecycle_transitions_denied_total",
			Help:      "Invoice status transitions rejected by the state table.",
		}),
	}
}

func (m *BillingMetrics) ObserveGeneration(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.InvoicesGenerated.WithLabelValues(outcome).Inc()
	m.GenerationDuration.Observe(time.Since(start).Seconds())
}

func (m *BillingMetrics) ObserveAggregation(start time.Time) {
	if m == nil {
		return
	}
	m.AggregationDuration.Observe(time.Since(start).Seconds())
}
