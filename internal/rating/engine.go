// Package rating implements the surface-aware adjusted-Elo rating engine.
package rating

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/sirupsen/logrus"
)

// Skip reasons reported in TrainingReport.SkippedByReason
const (
	SkipUnknownSurface    = "unknown_surface"
	SkipNonPositiveMargin = "non_positive_margin"
	SkipMissingPlayer     = "missing_player"
	SkipInvalid           = "invalid"
)

// TrainingReport summarises one training pass
type TrainingReport struct {
	Processed       int            `json:"processed"`
	Applied         int            `json:"applied"`
	Duplicates      int            `json:"duplicates"`
	Skipped         int            `json:"skipped"`
	SkippedByReason map[string]int `json:"skipped_by_reason"`
	FirstMatch      time.Time      `json:"first_match,omitempty"`
	LastMatch       time.Time      `json:"last_match,omitempty"`
}

// SkippedCount returns the number of malformed records that were not applied
func (r TrainingReport) SkippedCount() int {
	return r.Skipped
}

func (r *TrainingReport) skip(reason string) {
	r.Skipped++
	if r.SkippedByReason == nil {
		r.SkippedByReason = make(map[string]int)
	}
	r.SkippedByReason[reason]++
}

// Delta is the rating change produced by one match
type Delta struct {
	Expected        float64
	SurfaceExpected float64
	Multiplier      float64
	WinnerK         float64
	LoserK          float64
	WinnerOverall   float64
	LoserOverall    float64
	WinnerSurface   float64
	LoserSurface    float64
}

// Engine folds ordered match streams into rating snapshots.
// It holds no rating state of its own and is safe for concurrent use.
type Engine struct {
	config Config
	logger *logrus.Logger
	now    func() time.Time
}

// NewEngine creates a rating engine
func NewEngine(cfg Config, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rating config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{config: cfg, logger: logger, now: time.Now}, nil
}

// Config returns the engine parameters
func (e *Engine) Config() Config {
	return e.config
}

// TrainingPass applies every match from the iterator, in order, on top of base.
// A nil base starts from an empty table. Malformed matches are skipped and counted,
// already-applied keys are skipped as duplicates. If the iterator fails the pass
// returns no snapshot.
func (e *Engine) TrainingPass(base *models.RatingSnapshot, matches models.MatchIterator) (*models.RatingSnapshot, TrainingReport, error) {
	if base == nil {
		base = models.EmptySnapshot()
	}
	if matches == nil {
		return nil, TrainingReport{}, fmt.Errorf("%w: no match stream", models.ErrTrainingFailed)
	}

	t := newTable(base)
	report := TrainingReport{SkippedByReason: make(map[string]int)}

	for {
		m, ok := matches.Next()
		if !ok {
			break
		}
		report.Processed++

		if err := m.Validate(); err != nil {
			reason := skipReason(err)
			report.skip(reason)
			e.logger.WithFields(logrus.Fields{
				"match":  m.Key().String(),
				"reason": reason,
			}).Debug("Skipping match")
			continue
		}

		key := m.Key()
		if t.applied(key) {
			report.Duplicates++
			continue
		}

		winner := t.player(m.WinnerKey, m.WinnerName)
		loser := t.player(m.LoserKey, m.LoserName)
		e.Apply(winner, loser, m)
		t.markApplied(key)

		report.Applied++
		if report.FirstMatch.IsZero() || m.Date.Before(report.FirstMatch) {
			report.FirstMatch = m.Date
		}
		if m.Date.After(report.LastMatch) {
			report.LastMatch = m.Date
		}
	}

	if err := matches.Err(); err != nil {
		return nil, report, fmt.Errorf("%w: match stream: %v", models.ErrTrainingFailed, err)
	}

	snap := t.snapshot(base.Version()+1, e.now().UTC())
	if err := snap.Validate(); err != nil {
		return nil, report, fmt.Errorf("%w: %v", models.ErrTrainingFailed, err)
	}
	return snap, report, nil
}

// Apply updates winner and loser in place for one validated match.
// Both tracks use the K-factor each player had before the match.
func (e *Engine) Apply(winner, loser *models.PlayerRating, m models.Match) Delta {
	cfg := e.config
	s := m.Surface

	d := Delta{
		Multiplier: cfg.MarginMultiplier(m),
		WinnerK:    cfg.KFactor(winner.Matches),
		LoserK:     cfg.KFactor(loser.Matches),
	}

	wSurface, lSurface := winner.SurfaceRating(s), loser.SurfaceRating(s)
	wBlended := cfg.Blend(winner.Overall, wSurface, winner.SurfaceCount(s))
	lBlended := cfg.Blend(loser.Overall, lSurface, loser.SurfaceCount(s))

	d.Expected = ExpectedScore(wBlended, lBlended)
	d.SurfaceExpected = ExpectedScore(wSurface, lSurface)

	surprise := 1 - d.Expected
	d.WinnerOverall = d.WinnerK * d.Multiplier * surprise
	d.LoserOverall = -d.LoserK * d.Multiplier * surprise

	surfaceSurprise := 1 - d.SurfaceExpected
	d.WinnerSurface = d.WinnerK * d.Multiplier * surfaceSurprise
	d.LoserSurface = -d.LoserK * d.Multiplier * surfaceSurprise

	winner.Overall += d.WinnerOverall
	loser.Overall += d.LoserOverall
	winner.Surfaces[s] = wSurface + d.WinnerSurface
	loser.Surfaces[s] = lSurface + d.LoserSurface

	for _, p := range []*models.PlayerRating{winner, loser} {
		p.Matches++
		p.SurfaceMatches[s]++
		if m.Date.After(p.LastMatch) {
			p.LastMatch = m.Date
		}
	}
	return d
}

// ExpectedScore is the logistic probability that a player rated a beats one rated b
func ExpectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/eloScale))
}

// Blend mixes surface and overall ratings once enough surface matches exist
func (c Config) Blend(overall, surface float64, surfaceMatches int) float64 {
	if surfaceMatches < c.BlendMinSurfaceMatches {
		return overall
	}
	return c.SurfaceWeight*surface + c.OverallWeight*overall
}

// KFactor returns the K-factor for a player with the given overall match count
func (c Config) KFactor(matchesPlayed int) float64 {
	if matchesPlayed < c.ProvisionalMatches {
		return c.ProvisionalK
	}
	return c.StandardK
}

// MarginMultiplier scales K by the set differential, capped at MaxMarginMultiplier.
// Retired matches use the neutral multiplier.
func (c Config) MarginMultiplier(m models.Match) float64 {
	diff := m.SetMargin()
	if m.Retired || diff <= 1 {
		return 1.0
	}
	return math.Min(1.0+c.MarginStep*float64(diff-1), c.MaxMarginMultiplier)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, models.ErrUnknownSurface):
		return SkipUnknownSurface
	case errors.Is(err, models.ErrNonPositiveMargin):
		return SkipNonPositiveMargin
	case errors.Is(err, models.ErrMissingPlayer):
		return SkipMissingPlayer
	}
	return SkipInvalid
}
