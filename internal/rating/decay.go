package rating

import (
	"math"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
)

// MonthsInactive counts calendar months between the last match and asOf
func MonthsInactive(last, asOf time.Time) int {
	if last.IsZero() || !asOf.After(last) {
		return 0
	}
	return (asOf.Year()-last.Year())*12 + int(asOf.Month()) - int(last.Month())
}

// DecayRating applies the inactivity decay to a single rating
func (c Config) DecayRating(r float64, monthsInactive int) float64 {
	if monthsInactive <= c.DecayGraceMonths || r <= c.DecayFloor {
		return r
	}
	factor := math.Pow(1-c.DecayMonthlyRate, float64(monthsInactive-c.DecayGraceMonths))
	return math.Max(r*factor, c.DecayFloor)
}

// Decay returns a view of snap with inactivity decay applied as of asOf.
// The view keeps the snapshot's version and is meant for predictions only;
// snap itself is left untouched. When decay is disabled snap is returned as is.
func (e *Engine) Decay(snap *models.RatingSnapshot, asOf time.Time) *models.RatingSnapshot {
	if !e.config.DecayEnabled || snap == nil {
		return snap
	}

	players := snap.Players()
	changed := 0
	for _, p := range players {
		months := MonthsInactive(p.LastMatch, asOf)
		if months <= e.config.DecayGraceMonths {
			continue
		}
		p.Overall = e.config.DecayRating(p.Overall, months)
		for s, r := range p.Surfaces {
			p.Surfaces[s] = e.config.DecayRating(r, months)
		}
		changed++
	}
	if changed == 0 {
		return snap
	}
	e.logger.WithField("players_decayed", changed).Debug("Applied inactivity decay")
	return models.NewRatingSnapshot(snap.Version(), snap.CreatedAt(), players, snap.AppliedKeys())
}
