package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketMetrics tracks settlement engine activity for alerting and dashboards.
type MarketMetrics struct {
	poolsCreated        prometheus.Counter
	predictionsPlaced   prometheus.Counter
	claimsSettled       *prometheus.CounterVec
	doubleClaimRejected prometheus.Counter
	invariantViolations prometheus.Counter
	roundingDust        *prometheus.GaugeVec
}

var (
	marketOnce     sync.Once
	marketRegistry *MarketMetrics
)

// Market returns the process-wide market metrics registry.
func Market() *MarketMetrics {
	marketOnce.Do(func() {
		marketRegistry = &MarketMetrics{
			poolsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "market_pools_created_total",
				Help: "Count of prediction pools created.",
			}),
			predictionsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "market_predictions_placed_total",
				Help: "Count of predictions accepted across all pools.",
			}),
			claimsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "market_claims_settled_total",
				Help: "Count of settled claims by result.",
			}, []string{"result"}),
			doubleClaimRejected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "market_double_claim_rejected_total",
				Help: "Count of claims rejected because a claim record already existed.",
			}),
			invariantViolations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "market_invariant_violations_total",
				Help: "Count of detected state invariant violations. Any increase should page.",
			}),
			roundingDust: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "market_rounding_dust",
				Help: "Undistributed remainder retained by a pool after settled claims.",
			}, []string{"pool"}),
		}
		prometheus.MustRegister(
			marketRegistry.poolsCreated,
			marketRegistry.predictionsPlaced,
			marketRegistry.claimsSettled,
			marketRegistry.doubleClaimRejected,
			marketRegistry.invariantViolations,
			marketRegistry.roundingDust,
		)
	})
	return marketRegistry
}

// ObservePoolCreated increments the pool creation counter.
func (m *MarketMetrics) ObservePoolCreated() {
	if m == nil {
		return
	}
	m.poolsCreated.Inc()
}

// ObservePredictionPlaced increments the prediction counter.
func (m *MarketMetrics) ObservePredictionPlaced() {
	if m == nil {
		return
	}
	m.predictionsPlaced.Inc()
}

// ObserveClaimSettled increments the claim counter for the given result
// ("won", "lost" or "refund").
func (m *MarketMetrics) ObserveClaimSettled(result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.claimsSettled.WithLabelValues(result).Inc()
}

// ObserveDoubleClaimRejected increments the double-claim counter.
func (m *MarketMetrics) ObserveDoubleClaimRejected() {
	if m == nil {
		return
	}
	m.doubleClaimRejected.Inc()
}

// ObserveInvariantViolation increments the invariant violation counter.
func (m *MarketMetrics) ObserveInvariantViolation() {
	if m == nil {
		return
	}
	m.invariantViolations.Inc()
}

// SetRoundingDust records the remainder a pool currently retains.
func (m *MarketMetrics) SetRoundingDust(poolID uint64, dust float64) {
	if m == nil {
		return
	}
	m.roundingDust.WithLabelValues(strconv.FormatUint(poolID, 10)).Set(dust)
}
