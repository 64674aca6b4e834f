package rating

import (
	"testing"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthsInactive(t *testing.T) {
	last := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, MonthsInactive(time.Time{}, last))
	assert.Equal(t, 0, MonthsInactive(last, last))
	assert.Equal(t, 5, MonthsInactive(last, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 13, MonthsInactive(last, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDecayRating(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1800.0, cfg.DecayRating(1800, 3))
	assert.InDelta(t, 1800*0.985*0.985, cfg.DecayRating(1800, 5), 1e-9)
	assert.Equal(t, 1200.0, cfg.DecayRating(1300, 60))
	assert.Equal(t, 1100.0, cfg.DecayRating(1100, 24))
}

func TestDecayIsAReadOnlyView(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayEnabled = true
	e, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	p := models.NewPlayerRating("A", "A")
	p.Overall = 1800
	p.Surfaces[models.SurfaceHard] = 1700
	p.LastMatch = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	snap := models.NewRatingSnapshot(4, p.LastMatch, []*models.PlayerRating{p}, nil)

	view := e.Decay(snap, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NotSame(t, snap, view)
	assert.Equal(t, snap.Version(), view.Version())

	decayed, _ := view.Player("A")
	assert.InDelta(t, 1800*0.985*0.985*0.985, decayed.Overall, 1e-9)
	assert.Less(t, decayed.SurfaceRating(models.SurfaceHard), 1700.0)

	original, _ := snap.Player("A")
	assert.Equal(t, 1800.0, original.Overall)

	disabled, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Same(t, snap, disabled.Decay(snap, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}
