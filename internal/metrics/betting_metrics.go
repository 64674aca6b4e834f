package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ValueBetsFoundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "value_bets_found_total",
		Help:      "Total number of value bets found by tour and recommendation",
	}, []string{"tour", "recommendation"})

	ArbitrageFoundTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arbitrage_found_total",
		Help:      "Total number of arbitrage opportunities found",
	})

	OddsFetchErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "odds_fetch_errors_total",
		Help:      "Total number of failed odds fetches by source",
	}, []string{"source"})

	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "value_bet_cache_requests_total",
		Help:      "Value-bet cache lookups by result",
	}, []string{"result"})

	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Value-bet notifications by sink and outcome",
	}, []string{"sink", "outcome"})

	ValueBetEdge = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "value_bet_edge",
		Help:      "Edge of detected value bets",
		Buckets:   []float64{0.02, 0.05, 0.075, 0.1, 0.15, 0.2, 0.3, 0.5},
	})
)

// RecordValueBet records one detected value bet.
func RecordValueBet(tour, recommendation string, edge float64) {
	if tour == "" {
		tour = "unknown"
	}
	ValueBetsFoundTotal.WithLabelValues(tour, recommendation).Inc()
	ValueBetEdge.Observe(edge)
}

// RecordArbitrage records detected arbitrage opportunities.
func RecordArbitrage(n int) {
	ArbitrageFoundTotal.Add(float64(n))
}

// RecordOddsFetchError records a failed odds fetch.
func RecordOddsFetchError(source string) {
	OddsFetchErrorsTotal.WithLabelValues(source).Inc()
}

// RecordCacheHit records a cache hit.
func RecordCacheHit() {
	CacheRequestsTotal.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss() {
	CacheRequestsTotal.WithLabelValues("miss").Inc()
}

// RecordNotification records a sink delivery attempt.
func RecordNotification(sink string, err error) {
	outcome := "delivered"
	if err != nil {
		outcome = "failed"
	}
	NotificationsTotal.WithLabelValues(sink, outcome).Inc()
}
