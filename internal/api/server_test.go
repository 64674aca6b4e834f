package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martofrog/tennis-predictions/internal/datasource"
	"github.com/martofrog/tennis-predictions/internal/health"
	"github.com/martofrog/tennis-predictions/internal/logger"
	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/rating"
	"github.com/martofrog/tennis-predictions/internal/service"
	"github.com/martofrog/tennis-predictions/internal/snapshot"
	"github.com/martofrog/tennis-predictions/internal/valuebet"
)

type testEnv struct {
	server  *Server
	checker *health.Checker
	hub     *Hub
}

func rated(key string, overall float64, matches int) *models.PlayerRating {
	p := models.NewPlayerRating(key, key)
	p.Overall = overall
	p.Matches = matches
	return p
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()

	engine, err := rating.NewEngine(rating.DefaultConfig(), log)
	require.NoError(t, err)

	store := snapshot.NewStore(nil, nil)
	_, err = store.Train(context.Background(), func(*models.RatingSnapshot) (*models.RatingSnapshot, error) {
		return models.NewRatingSnapshot(0, time.Time{}, []*models.PlayerRating{
			rated("Alpha One", 1700, 40),
			rated("Beta Two", 1500, 40),
			rated("Gamma Three", 1600, 12),
		}, nil), nil
	})
	require.NoError(t, err)

	matches := datasource.NewSliceMatchSource([]models.Match{{
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Surface: models.SurfaceHard,
		WinnerKey: "Beta Two", LoserKey: "Delta Four", WinnerSets: 2, LoserSets: 1,
	}})
	odds := datasource.NewStaticOddsSource([]models.MarketOdds{{
		MatchRef: "evt-1",
		Tour:     models.TourATP,
		PlayerA:  "Alpha One",
		PlayerB:  "Beta Two",
		Quotes: []models.OddsQuote{
			{Bookmaker: "book1", Selection: "Alpha One", Price: 1.60},
			{Bookmaker: "book1", Selection: "Beta Two", Price: 2.40},
		},
	}})

	predictions := service.NewPredictionService(store, engine)
	training := service.NewTrainingService(matches, engine, store, log)
	hub := NewHub(nil, log)
	betting := service.NewBettingService(odds, predictions, valuebet.NewDetector(valuebet.DefaultConfig()),
		service.BettingConfig{DefaultSurface: models.SurfaceHard, CacheTTL: time.Minute}, log, hub)
	checker := health.NewChecker(health.Config{ServiceName: "tennis-predictions", Snapshots: predictions})

	srv := NewServer(Config{MetricsPath: "/metrics"}, predictions, training, betting, checker, hub, log)
	return &testEnv{server: srv, checker: checker, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/ready").Code)

	env.checker.SetReady(true)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ready").Code)

	rec := env.do(t, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRatingsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v2/ratings?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ratings         []service.RatingEntry `json:"ratings"`
		Count           int                   `json:"count"`
		SnapshotVersion uint64                `json:"snapshot_version"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Alpha One", body.Ratings[0].Player)
	assert.Equal(t, "Gamma Three", body.Ratings[1].Player)
	assert.Equal(t, uint64(1), body.SnapshotVersion)

	rec = env.do(t, http.MethodGet, "/api/v2/ratings?sort_by=player")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "Alpha One", body.Ratings[0].Player)
	assert.Equal(t, "Beta Two", body.Ratings[1].Player)
	assert.Equal(t, 3, body.Ratings[1].Rank)

	rec = env.do(t, http.MethodGet, "/api/v2/ratings?sort_by=player&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	body.Ratings = nil
	decode(t, rec, &body)
	require.Len(t, body.Ratings, 2)
	assert.Equal(t, "Alpha One", body.Ratings[0].Player)
	assert.Equal(t, "Beta Two", body.Ratings[1].Player)
	assert.Equal(t, 3, body.Ratings[1].Rank)

	for _, target := range []string{
		"/api/v2/ratings?sort_by=age",
		"/api/v2/ratings?surface=carpet",
		"/api/v2/ratings?limit=abc",
	} {
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, target).Code, target)
	}
}

func TestPlayerEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v2/ratings/beta%20two")
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.PlayerRating
	decode(t, rec, &p)
	assert.Equal(t, "Beta Two", p.Key)
	assert.Equal(t, 1500.0, p.Overall)

	rec = env.do(t, http.MethodGet, "/api/v2/ratings/Nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	assert.Equal(t, http.StatusNotFound, errResp.Code)
}

func TestPredictEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v2/predict?player1=Alpha%20One&player2=Beta%20Two&surface=Hard%20Court")
	require.Equal(t, http.StatusOK, rec.Code)

	var pred PredictionResponse
	decode(t, rec, &pred)
	assert.Equal(t, models.SurfaceHard, pred.Surface)
	assert.InDelta(t, 0.759747, pred.Player1WinProbability, 1e-6)
	assert.InDelta(t, 1.0, pred.Player1WinProbability+pred.Player2WinProbability, 1e-12)
	assert.InDelta(t, 1/0.759747, pred.Player1FairOdds, 1e-4)
	assert.Equal(t, "Alpha One", pred.Favorite)
	assert.InDelta(t, 0.259747, pred.Confidence, 1e-6)

	tests := []struct {
		name   string
		target string
	}{
		{"missing player", "/api/v2/predict?player1=Alpha%20One"},
		{"same player", "/api/v2/predict?player1=Alpha%20One&player2=alpha%20one"},
		{"bad surface", "/api/v2/predict?player1=Alpha%20One&player2=Beta%20Two&surface=carpet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, tt.target).Code)
		})
	}
}

func TestValueBetsAndCacheEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v2/value-bets?tour=ATP")
	require.Equal(t, http.StatusOK, rec.Code)

	var result service.ScanResult
	decode(t, rec, &result)
	require.Len(t, result.ValueBets, 1)
	assert.Equal(t, "Alpha One", result.ValueBets[0].Selection)
	assert.Equal(t, models.RecommendationStrongBet, result.ValueBets[0].Recommendation)
	assert.False(t, result.Cached)

	rec = env.do(t, http.MethodGet, "/api/v2/cache/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status service.CacheStatus
	decode(t, rec, &status)
	assert.Equal(t, 1, status.Entries)

	rec = env.do(t, http.MethodDelete, "/api/v2/cache/clear")
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared struct {
		Cleared int `json:"cleared"`
	}
	decode(t, rec, &cleared)
	assert.Equal(t, 1, cleared.Cleared)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v2/value-bets?min_edge=5").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v2/value-bets?tour=itf").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v2/value-bets?window=-1h").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v2/value-bets?window=tomorrow").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v2/value-bets?best_per_match=maybe").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodGet, "/api/v2/cache/clear").Code)
}

func TestValueBetsWindowExcludesUndatedMarkets(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v2/value-bets?window=24h&best_per_match=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.ScanResult
	decode(t, rec, &result)
	assert.Equal(t, 0, result.Markets)
	assert.Empty(t, result.ValueBets)
	assert.Equal(t, "24h0m0s", result.Window)
	assert.True(t, result.BestPerMatch)
}

func TestTrainingEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v2/training/run")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result service.TrainingResult
	decode(t, rec, &result)
	assert.Equal(t, uint64(2), result.Version)
	assert.Equal(t, 1, result.Report.Applied)
	assert.Equal(t, 4, result.Players)

	rec = env.do(t, http.MethodGet, "/api/v2/training/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status service.TrainingStatus
	decode(t, rec, &status)
	assert.False(t, status.Running)
	assert.Equal(t, uint64(2), status.SnapshotVersion)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, result.RunID, status.LastRun.RunID)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/v2/training/run?full=maybe").Code)
}

func TestDataStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v2/data-status")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status datasource.DataStatus
	decode(t, rec, &status)
	assert.Equal(t, "slice", status.Source)
	require.Len(t, status.Tours, 1)
	assert.Equal(t, 1, status.Tours[0].TotalMatches)
	assert.Equal(t, "2024-03-01", status.Tours[0].EarliestDate)
	assert.Equal(t, "2024-03-01", status.Tours[0].LatestDate)
}

func TestStreamDeliversValueBets(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v2/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	bet := models.ValueBet{MatchRef: "evt-9", Selection: "Alpha One", Edge: 0.12}
	require.NoError(t, env.hub.Publish(ctx, []models.ValueBet{bet}, nil))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string          `json:"type"`
		Payload models.ValueBet `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeValueBet, msg.Type)
	assert.Equal(t, "evt-9", msg.Payload.MatchRef)
	assert.InDelta(t, 0.12, msg.Payload.Edge, 1e-12)
}
