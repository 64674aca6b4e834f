package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/odds"
	"github.com/martofrog/tennis-predictions/internal/service"
)

const maxRatingsLimit = 1000

// PredictionResponse is the body of /api/v2/predict
type PredictionResponse struct {
	Player1               string         `json:"player1"`
	Player2               string         `json:"player2"`
	Surface               models.Surface `json:"surface"`
	Player1Rating         float64        `json:"player1_rating"`
	Player2Rating         float64        `json:"player2_rating"`
	Player1WinProbability float64        `json:"player1_win_probability"`
	Player2WinProbability float64        `json:"player2_win_probability"`
	Player1FairOdds       float64        `json:"player1_fair_odds,omitempty"`
	Player2FairOdds       float64        `json:"player2_fair_odds,omitempty"`
	Favorite              string         `json:"favorite"`
	Confidence            float64        `json:"confidence"`
	SnapshotVersion       uint64         `json:"snapshot_version"`
}

// handleRatings lists ratings.
// Query params: surface, limit, sort_by (rating|player)
func (s *Server) handleRatings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var surface models.Surface
	if raw := q.Get("surface"); raw != "" {
		parsed, err := models.ParseSurface(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		surface = parsed
	}

	limit, err := parseIntParam(q.Get("limit"), 100)
	if err != nil || limit < 0 || limit > maxRatingsLimit {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 0 and %d", maxRatingsLimit))
		return
	}

	order, err := service.ParseRatingOrder(q.Get("sort_by"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	entries := s.predictions.Ratings(surface, order, limit)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ratings":          entries,
		"count":            len(entries),
		"surface":          surface,
		"sort_by":          order,
		"snapshot_version": s.predictions.SnapshotVersion(),
	})
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.predictions.Player(chi.URLParam(r, "player"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// handlePredict predicts a matchup.
// Query params: player1, player2, surface (default hard)
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p1, p2 := q.Get("player1"), q.Get("player2")
	if strings.TrimSpace(p1) == "" || strings.TrimSpace(p2) == "" {
		respondError(w, http.StatusBadRequest, "both player1 and player2 are required")
		return
	}

	surface := models.SurfaceHard
	if raw := q.Get("surface"); raw != "" {
		parsed, err := models.ParseSurface(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "surface must be one of: hard, clay, grass")
			return
		}
		surface = parsed
	}

	pred, err := s.predictions.Predict(p1, p2, surface)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	// Fair prices are omitted when a probability rounds to 0 or 1.
	fair1, _ := odds.ProbabilityToDecimal(pred.ProbabilityA)
	fair2, _ := odds.ProbabilityToDecimal(pred.ProbabilityB())

	respondJSON(w, http.StatusOK, PredictionResponse{
		Player1:               pred.PlayerA,
		Player2:               pred.PlayerB,
		Surface:               pred.Surface,
		Player1Rating:         pred.RatingA,
		Player2Rating:         pred.RatingB,
		Player1WinProbability: pred.ProbabilityA,
		Player2WinProbability: pred.ProbabilityB(),
		Player1FairOdds:       fair1,
		Player2FairOdds:       fair2,
		Favorite:              pred.Favorite(),
		Confidence:            pred.Confidence(),
		SnapshotVersion:       s.predictions.SnapshotVersion(),
	})
}

// handleValueBets scans upcoming markets.
// Query params: min_edge (fraction, 0 < x < 1), tour (atp|wta),
// window (duration such as 24h), best_per_match (bool)
func (s *Server) handleValueBets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts service.ScanOptions

	if raw := q.Get("min_edge"); raw != "" {
		edge, err := strconv.ParseFloat(raw, 64)
		if err != nil || edge <= 0 || edge >= 1 {
			respondError(w, http.StatusBadRequest, "min_edge must be a fraction between 0 and 1")
			return
		}
		opts.Threshold = edge
	}
	if raw := q.Get("tour"); raw != "" {
		tour, err := models.ParseTour(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Tour = tour
	}
	if raw := q.Get("window"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil || window <= 0 {
			respondError(w, http.StatusBadRequest, "window must be a positive duration such as 24h")
			return
		}
		opts.Window = window
	}
	if raw := q.Get("best_per_match"); raw != "" {
		best, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "best_per_match must be true or false")
			return
		}
		opts.BestPerMatch = best
	}

	result, err := s.betting.ScanValueBets(r.Context(), opts)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.betting.CacheStatus())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	cleared := s.betting.ClearCache(r.RemoteAddr)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "cleared value-bet cache",
		"cleared": cleared,
	})
}

func (s *Server) handleTrainingStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.training.Status())
}

// handleDataStatus reports the matches available per tour
func (s *Server) handleDataStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.training.DataStatus(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// handleTrainingRun runs a training pass and waits for it.
// Query params: full (bool)
func (s *Server) handleTrainingRun(w http.ResponseWriter, r *http.Request) {
	full := false
	if raw := r.URL.Query().Get("full"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "full must be a boolean")
			return
		}
		full = parsed
	}

	result, err := s.training.Retrain(r.Context(), full)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func parseIntParam(raw string, defaultValue int) (int, error) {
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}
