// Package metrics provides the Prometheus metrics registry for the prediction service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tennis_predictions"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// HTTP metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients",
		Help:      "Number of connected value-bet stream clients",
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		registry.MustRegister(HTTPRequestsTotal)
		registry.MustRegister(HTTPRequestDuration)
		registry.MustRegister(StreamClients)

		// Rating metrics
		registry.MustRegister(TrainingPassesTotal)
		registry.MustRegister(MatchesAppliedTotal)
		registry.MustRegister(MatchesSkippedTotal)
		registry.MustRegister(TrainingDuration)
		registry.MustRegister(SnapshotVersion)
		registry.MustRegister(PlayersRated)

		// Betting metrics
		registry.MustRegister(ValueBetsFoundTotal)
		registry.MustRegister(ArbitrageFoundTotal)
		registry.MustRegister(OddsFetchErrorsTotal)
		registry.MustRegister(CacheRequestsTotal)
		registry.MustRegister(NotificationsTotal)
		registry.MustRegister(ValueBetEdge)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, method string, status int, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(durationSeconds)
}

// UpdateStreamClients sets the connected stream client gauge.
func UpdateStreamClients(n int) {
	StreamClients.Set(float64(n))
}
