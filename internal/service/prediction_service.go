// Package service wires rating, prediction and value-bet components into use cases.
package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/prediction"
	"github.com/martofrog/tennis-predictions/internal/rating"
	"github.com/martofrog/tennis-predictions/internal/snapshot"
)

// RatingEntry is one row of a ratings listing
type RatingEntry struct {
	Rank           int                        `json:"rank"`
	Player         string                     `json:"player"`
	Rating         float64                    `json:"rating"`
	Overall        float64                    `json:"overall_rating"`
	SurfaceRatings map[models.Surface]float64 `json:"surface_ratings"`
	Matches        int                        `json:"matches_played"`
	LastMatch      time.Time                  `json:"last_match,omitempty"`
}

// PredictionService answers rating and prediction queries against the published snapshot
type PredictionService struct {
	store  *snapshot.Store
	engine *rating.Engine
	model  *prediction.Model
	now    func() time.Time
}

// NewPredictionService creates a query service
func NewPredictionService(store *snapshot.Store, engine *rating.Engine) *PredictionService {
	return &PredictionService{
		store:  store,
		engine: engine,
		model:  prediction.NewModel(engine.Config()),
		now:    time.Now,
	}
}

// View returns the published snapshot with inactivity decay applied when enabled
func (s *PredictionService) View() *models.RatingSnapshot {
	return s.engine.Decay(s.store.Current(), s.now().UTC())
}

// Predict normalizes both names and predicts playerA against playerB
func (s *PredictionService) Predict(playerA, playerB string, surface models.Surface) (models.Prediction, error) {
	a, b := models.NormalizeKey(playerA), models.NormalizeKey(playerB)
	if a == "" || b == "" || a == b {
		return models.Prediction{}, fmt.Errorf("%w: two distinct players are required", models.ErrMissingPlayer)
	}
	if !surface.Valid() {
		return models.Prediction{}, fmt.Errorf("%w: %q", models.ErrUnknownSurface, string(surface))
	}
	return s.model.Predict(s.View(), a, b, surface), nil
}

// PredictMarket predicts the two players of a market, falling back to surface when the market has none
func (s *PredictionService) PredictMarket(snap *models.RatingSnapshot, market models.MarketOdds, surface models.Surface) models.Prediction {
	if market.Surface.Valid() {
		surface = market.Surface
	}
	return s.model.Predict(snap, market.PlayerA, market.PlayerB, surface)
}

// RatingOrder selects how a ratings listing is ordered
type RatingOrder string

const (
	OrderByRating RatingOrder = "rating"
	OrderByPlayer RatingOrder = "player"
)

// ParseRatingOrder maps a query value onto a RatingOrder; empty means by rating
func ParseRatingOrder(raw string) (RatingOrder, error) {
	switch RatingOrder(raw) {
	case "", OrderByRating:
		return OrderByRating, nil
	case OrderByPlayer:
		return OrderByPlayer, nil
	}
	return "", fmt.Errorf("%w: %q, want rating or player", models.ErrUnknownSortOrder, raw)
}

// Ratings lists players in the given order. A valid surface rates players by
// the blended surface rating. Rank is always the position by rating, and
// limit (<= 0 returns everyone) applies after ordering.
func (s *PredictionService) Ratings(surface models.Surface, order RatingOrder, limit int) []RatingEntry {
	snap := s.View()
	players := snap.Players()

	entries := make([]RatingEntry, 0, len(players))
	for _, p := range players {
		r := p.Overall
		if surface.Valid() {
			r = s.model.BlendedRating(snap, p.Key, surface)
		}
		entries = append(entries, RatingEntry{
			Player:         p.Name,
			Rating:         r,
			Overall:        p.Overall,
			SurfaceRatings: p.Surfaces,
			Matches:        p.Matches,
			LastMatch:      p.LastMatch,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Player < entries[j].Player
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if order == OrderByPlayer {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Player < entries[j].Player })
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Player returns one player's record by display name or key
func (s *PredictionService) Player(name string) (*models.PlayerRating, error) {
	key := models.NormalizeKey(name)
	p, ok := s.View().Player(key)
	if !ok {
		return nil, fmt.Errorf("%w: player %q", models.ErrNotFound, key)
	}
	return p, nil
}

// SnapshotVersion returns the published version
func (s *PredictionService) SnapshotVersion() uint64 {
	return s.store.Current().Version()
}
