package rating

import (
	"errors"
	"testing"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceIterator struct {
	matches []models.Match
	pos     int
	err     error
}

func (it *sliceIterator) Next() (models.Match, bool) {
	if it.pos >= len(it.matches) {
		return models.Match{}, false
	}
	m := it.matches[it.pos]
	it.pos++
	return m, true
}

func (it *sliceIterator) Err() error {
	if it.pos >= len(it.matches) {
		return it.err
	}
	return nil
}

func iter(matches ...models.Match) *sliceIterator {
	return &sliceIterator{matches: matches}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func match(d int, winner, loser string, surface models.Surface, ws, ls int) models.Match {
	return models.Match{
		Date:       day(d),
		Surface:    surface,
		WinnerKey:  winner,
		LoserKey:   loser,
		WinnerSets: ws,
		LoserSets:  ls,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	e, err := NewEngine(DefaultConfig(), logger)
	require.NoError(t, err)
	return e
}

func experienced(key string, matches int) *models.PlayerRating {
	p := models.NewPlayerRating(key, key)
	p.Matches = matches
	return p
}

func TestExpectedScore(t *testing.T) {
	assert.Equal(t, 0.5, ExpectedScore(1500, 1500))
	assert.InDelta(t, 0.909091, ExpectedScore(1900, 1500), 1e-6)
	assert.InDelta(t, 1.0, ExpectedScore(1900, 1500)+ExpectedScore(1500, 1900), 1e-12)
}

func TestStandardKUpdateAtEqualRatings(t *testing.T) {
	e := newTestEngine(t)
	base := models.NewRatingSnapshot(1, day(1), []*models.PlayerRating{
		experienced("A", 30),
		experienced("B", 45),
	}, nil)

	snap, report, err := e.TrainingPass(base, iter(match(2, "A", "B", models.SurfaceHard, 2, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)

	a, _ := snap.Player("A")
	b, _ := snap.Player("B")
	assert.InDelta(t, 1512.0, a.Overall, 1e-9)
	assert.InDelta(t, 1488.0, b.Overall, 1e-9)
	assert.InDelta(t, 1512.0, a.SurfaceRating(models.SurfaceHard), 1e-9)
	assert.InDelta(t, 1488.0, b.SurfaceRating(models.SurfaceHard), 1e-9)
	assert.Equal(t, 31, a.Matches)
	assert.Equal(t, 1, b.SurfaceCount(models.SurfaceHard))
	assert.Equal(t, uint64(2), snap.Version())
}

func TestColdStartUsesProvisionalK(t *testing.T) {
	e := newTestEngine(t)

	snap, _, err := e.TrainingPass(nil, iter(match(1, "A", "B", models.SurfaceClay, 2, 1)))
	require.NoError(t, err)

	a, ok := snap.Player("A")
	require.True(t, ok)
	b, _ := snap.Player("B")
	assert.InDelta(t, 1520.0, a.Overall, 1e-9)
	assert.InDelta(t, 1480.0, b.Overall, 1e-9)
	assert.InDelta(t, 1520.0, a.SurfaceRating(models.SurfaceClay), 1e-9)
	assert.Equal(t, models.DefaultRating, a.SurfaceRating(models.SurfaceGrass))
}

func TestMarginMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name    string
		ws, ls  int
		retired bool
		want    float64
	}{
		{"one set margin", 2, 1, false, 1.0},
		{"three sets to two", 3, 2, false, 1.0},
		{"straight sets best of three", 2, 0, false, 1.25},
		{"three sets to one", 3, 1, false, 1.25},
		{"straight sets best of five", 3, 0, false, 1.5},
		{"capped", 5, 0, false, 1.5},
		{"retired", 2, 0, true, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := models.Match{WinnerSets: tt.ws, LoserSets: tt.ls, Retired: tt.retired}
			assert.Equal(t, tt.want, cfg.MarginMultiplier(m))
		})
	}
}

func TestKFactor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 40.0, cfg.KFactor(0))
	assert.Equal(t, 40.0, cfg.KFactor(29))
	assert.Equal(t, 24.0, cfg.KFactor(30))
}

func TestBlendRequiresSurfaceHistory(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1600.0, cfg.Blend(1600, 1800, 9))
	assert.InDelta(t, 0.7*1800+0.3*1600, cfg.Blend(1600, 1800, 10), 1e-9)
}

func TestSurfaceTrackUsesPureSurfaceRatings(t *testing.T) {
	e := newTestEngine(t)
	winner := experienced("A", 50)
	winner.Overall = 1700
	winner.Surfaces[models.SurfaceGrass] = 1500
	winner.SurfaceMatches[models.SurfaceGrass] = 12
	loser := experienced("B", 50)
	loser.Overall = 1500
	loser.Surfaces[models.SurfaceGrass] = 1500
	loser.SurfaceMatches[models.SurfaceGrass] = 12

	d := e.Apply(winner, loser, match(3, "A", "B", models.SurfaceGrass, 2, 1))

	blendedW := 0.7*1500 + 0.3*1700
	assert.InDelta(t, ExpectedScore(blendedW, 1500), d.Expected, 1e-12)
	assert.Equal(t, 0.5, d.SurfaceExpected)
	assert.InDelta(t, 1512.0, winner.Surfaces[models.SurfaceGrass], 1e-9)
	assert.InDelta(t, 1488.0, loser.Surfaces[models.SurfaceGrass], 1e-9)
	assert.Less(t, d.WinnerOverall, 12.0)
}

func TestWinnerNeverLosesRating(t *testing.T) {
	e := newTestEngine(t)
	stream := []models.Match{
		match(1, "A", "B", models.SurfaceHard, 2, 0),
		match(2, "A", "C", models.SurfaceClay, 3, 0),
		match(3, "C", "B", models.SurfaceGrass, 3, 2),
		match(4, "B", "A", models.SurfaceHard, 2, 1),
		match(5, "A", "B", models.SurfaceHard, 2, 0),
	}

	snap := models.EmptySnapshot()
	for _, m := range stream {
		before := snap
		next, _, err := e.TrainingPass(before, iter(m))
		require.NoError(t, err)

		w0, _, _ := before.Rating(m.WinnerKey, m.Surface)
		l0, _, _ := before.Rating(m.LoserKey, m.Surface)
		_, ws0, _ := before.Rating(m.WinnerKey, m.Surface)
		_, ls0, _ := before.Rating(m.LoserKey, m.Surface)
		w1, ws1, _ := next.Rating(m.WinnerKey, m.Surface)
		l1, ls1, _ := next.Rating(m.LoserKey, m.Surface)

		assert.GreaterOrEqual(t, w1, w0)
		assert.GreaterOrEqual(t, ws1, ws0)
		assert.LessOrEqual(t, l1, l0)
		assert.LessOrEqual(t, ls1, ls0)
		snap = next
	}
}

func TestTrainingPassSkipsMalformedMatches(t *testing.T) {
	e := newTestEngine(t)
	stream := iter(
		match(1, "A", "B", models.SurfaceHard, 2, 0),
		match(2, "A", "B", models.Surface("carpet"), 2, 0),
		match(3, "A", "B", models.SurfaceHard, 1, 1),
		match(4, "A", "B", models.SurfaceHard, 1, 2),
		match(5, "", "B", models.SurfaceHard, 2, 0),
	)

	snap, report, err := e.TrainingPass(nil, stream)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Processed)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 4, report.SkippedCount())
	assert.Equal(t, 1, report.SkippedByReason[SkipUnknownSurface])
	assert.Equal(t, 2, report.SkippedByReason[SkipNonPositiveMargin])
	assert.Equal(t, 1, report.SkippedByReason[SkipMissingPlayer])

	a, _ := snap.Player("A")
	assert.Equal(t, 1, a.Matches)
}

func TestTrainingPassIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	stream := []models.Match{
		match(1, "A", "B", models.SurfaceHard, 2, 0),
		match(2, "B", "C", models.SurfaceClay, 2, 1),
		match(3, "C", "A", models.SurfaceGrass, 3, 1),
	}

	once, _, err := e.TrainingPass(nil, iter(stream...))
	require.NoError(t, err)

	doubled := append(append([]models.Match{}, stream...), stream...)
	twice, report, err := e.TrainingPass(nil, iter(doubled...))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Duplicates)
	assert.Equal(t, once.Players(), twice.Players())

	replayed, report, err := e.TrainingPass(once, iter(stream...))
	require.NoError(t, err)
	assert.Zero(t, report.Applied)
	assert.Equal(t, 3, report.Duplicates)
	assert.Equal(t, once.Players(), replayed.Players())
}

func TestTrainingPassIsDeterministic(t *testing.T) {
	e := newTestEngine(t)
	stream := []models.Match{
		match(1, "A", "B", models.SurfaceHard, 2, 0),
		match(1, "C", "D", models.SurfaceHard, 2, 1),
		match(2, "A", "C", models.SurfaceHard, 3, 0),
		match(3, "D", "B", models.SurfaceClay, 2, 1),
	}

	first, _, err := e.TrainingPass(nil, iter(stream...))
	require.NoError(t, err)
	second, _, err := e.TrainingPass(nil, iter(stream...))
	require.NoError(t, err)
	assert.Equal(t, first.Players(), second.Players())
}

func TestTrainingPassFailsOnStreamError(t *testing.T) {
	e := newTestEngine(t)
	it := iter(match(1, "A", "B", models.SurfaceHard, 2, 0))
	it.err = errors.New("connection reset")

	snap, report, err := e.TrainingPass(nil, it)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTrainingFailed)
	assert.Nil(t, snap)
	assert.Equal(t, 1, report.Processed)

	_, _, err = e.TrainingPass(nil, nil)
	assert.ErrorIs(t, err, models.ErrTrainingFailed)
}

func TestTrainingPassDoesNotMutateBase(t *testing.T) {
	e := newTestEngine(t)
	base, _, err := e.TrainingPass(nil, iter(match(1, "A", "B", models.SurfaceHard, 2, 0)))
	require.NoError(t, err)
	before := base.Players()

	_, _, err = e.TrainingPass(base, iter(match(2, "B", "A", models.SurfaceHard, 2, 0)))
	require.NoError(t, err)
	assert.Equal(t, before, base.Players())
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SurfaceWeight = 0.9
	_, err := NewEngine(cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.MaxMarginMultiplier = 0.5
	_, err = NewEngine(cfg, nil)
	assert.Error(t, err)
}
