// Package prediction turns rating snapshots into head-to-head win probabilities.
package prediction

import (
	"math"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/rating"
)

// Model predicts match outcomes from a rating snapshot
type Model struct {
	config rating.Config
}

// NewModel creates a probability model using the engine's blending parameters
func NewModel(cfg rating.Config) *Model {
	return &Model{config: cfg}
}

// BlendedRating returns the rating used for a player on surface.
// Unknown players are rated at the default.
func (m *Model) BlendedRating(snap *models.RatingSnapshot, player string, surface models.Surface) float64 {
	if snap == nil {
		return models.DefaultRating
	}
	overall, onSurface, n := snap.Rating(player, surface)
	if !surface.Valid() {
		return overall
	}
	return m.config.Blend(overall, onSurface, n)
}

// Predict returns the probability that playerA beats playerB on surface.
// The result is strictly inside (0,1).
func (m *Model) Predict(snap *models.RatingSnapshot, playerA, playerB string, surface models.Surface) models.Prediction {
	ra := m.BlendedRating(snap, playerA, surface)
	rb := m.BlendedRating(snap, playerB, surface)

	return models.Prediction{
		PlayerA:      playerA,
		PlayerB:      playerB,
		Surface:      surface,
		RatingA:      ra,
		RatingB:      rb,
		ProbabilityA: clampOpen(rating.ExpectedScore(ra, rb)),
	}
}

// clampOpen keeps p away from exactly 0 or 1 when the rating gap overflows float precision
func clampOpen(p float64) float64 {
	if p <= 0 {
		return math.SmallestNonzeroFloat64
	}
	if p >= 1 {
		return math.Nextafter(1, 0)
	}
	return p
}
