package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordTrainingPass(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(TrainingPassesTotal.WithLabelValues(StatusSuccess))

	RecordTrainingPass(StatusSuccess, 0.25)
	RecordTrainingPass(StatusRejected, 0)

	assert.Equal(t, before+1, testutil.ToFloat64(TrainingPassesTotal.WithLabelValues(StatusSuccess)))
}

func TestRecordTrainingReport(t *testing.T) {
	InitRegistry()
	applied := testutil.ToFloat64(MatchesAppliedTotal)
	skipped := testutil.ToFloat64(MatchesSkippedTotal.WithLabelValues("duplicate"))

	RecordTrainingReport(7, map[string]int{"duplicate": 2})

	assert.Equal(t, applied+7, testutil.ToFloat64(MatchesAppliedTotal))
	assert.Equal(t, skipped+2, testutil.ToFloat64(MatchesSkippedTotal.WithLabelValues("duplicate")))
}

func TestUpdateSnapshot(t *testing.T) {
	InitRegistry()

	UpdateSnapshot(12, 340)

	assert.Equal(t, 12.0, testutil.ToFloat64(SnapshotVersion))
	assert.Equal(t, 340.0, testutil.ToFloat64(PlayersRated))
}

func TestBettingCounters(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name   string
		record func()
		metric prometheus.Collector
	}{
		{"value bet", func() { RecordValueBet("atp", "bet", 0.07) }, ValueBetsFoundTotal.WithLabelValues("atp", "bet")},
		{"value bet without tour", func() { RecordValueBet("", "pass", 0.05) }, ValueBetsFoundTotal.WithLabelValues("unknown", "pass")},
		{"arbitrage", func() { RecordArbitrage(1) }, ArbitrageFoundTotal},
		{"odds error", func() { RecordOddsFetchError("the_odds_api") }, OddsFetchErrorsTotal.WithLabelValues("the_odds_api")},
		{"cache hit", RecordCacheHit, CacheRequestsTotal.WithLabelValues("hit")},
		{"cache miss", RecordCacheMiss, CacheRequestsTotal.WithLabelValues("miss")},
		{"notification failed", func() { RecordNotification("telegram", errors.New("down")) }, NotificationsTotal.WithLabelValues("telegram", "failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(tt.metric)
			tt.record()
			assert.Equal(t, before+1, testutil.ToFloat64(tt.metric))
		})
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	InitRegistry()
	RecordHTTPRequest("/health", http.MethodGet, http.StatusOK, 0.001)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tennis_predictions_http_requests_total")
}
