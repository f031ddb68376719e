package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a verify-totals request
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeError       = "error"
)

// Metrics groups the collectors of the pricing service
type Metrics struct {
	VerifyTotals       *prometheus.CounterVec
	VerifyDuration     prometheus.Histogram
	PromotionsApplied  *prometheus.CounterVec
	CartLinesProcessed prometheus.Counter
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VerifyTotals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pedidos",
			Subsystem: "cart",
			Name:      "verify_totals_total",
			Help:      "Verify-totals requests by outcome.",
		}, []string{"outcome"}),
		VerifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pedidos",
			Subsystem: "cart",
			Name:      "verify_totals_duration_seconds",
			Help:      "Time spent pricing a cart.",
			Buckets:   prometheus.DefBuckets,
		}),
		PromotionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pedidos",
			Subsystem: "cart",
			Name:      "promotions_applied_total",
			Help:      "Promotions applied to priced carts by scope.",
		}, []string{"scope"}),
		CartLinesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pedidos",
			Subsystem: "cart",
			Name:      "lines_priced_total",
			Help:      "Cart lines priced successfully.",
		}),
	}

	reg.MustRegister(m.VerifyTotals, m.VerifyDuration, m.PromotionsApplied, m.CartLinesProcessed)
	return m
}
