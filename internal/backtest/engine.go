package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/rating"
)

// Prediction is one scored pre-match forecast
type Prediction struct {
	Date     time.Time      `json:"date"`
	Surface  models.Surface `json:"surface"`
	Winner   string         `json:"winner"`
	Loser    string         `json:"loser"`
	PWinner  float64        `json:"p_winner"`
	Favorite string         `json:"favorite"`
}

// Result holds a complete walk-forward evaluation
type Result struct {
	StartedAt   time.Time                  `json:"started_at"`
	Duration    time.Duration              `json:"duration"`
	Processed   int                        `json:"processed"`
	Skipped     int                        `json:"skipped"`
	Duplicates  int                        `json:"duplicates"`
	Overall     Metrics                    `json:"overall"`
	BySurface   map[models.Surface]Metrics `json:"by_surface"`
	ByYear      map[int]Metrics            `json:"by_year"`
	Predictions []Prediction               `json:"-"`
}

// Years returns the scored years in ascending order
func (r *Result) Years() []int {
	years := make([]int, 0, len(r.ByYear))
	for y := range r.ByYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Runner replays match history through a rating engine, forecasting every
// match from the ratings held just before it was played.
type Runner struct {
	engine *rating.Engine
	config Config
	logger *logrus.Logger
}

// NewRunner creates a walk-forward runner
func NewRunner(engine *rating.Engine, cfg Config, logger *logrus.Logger) (*Runner, error) {
	if engine == nil {
		return nil, fmt.Errorf("rating engine is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{engine: engine, config: cfg, logger: logger}, nil
}

// Run consumes matches in order. Every valid match updates the ratings; only
// matches inside the window with enough history on both sides are scored.
func (r *Runner) Run(ctx context.Context, matches models.MatchIterator) (*Result, error) {
	start := time.Now()
	result := &Result{StartedAt: start.UTC()}

	players := make(map[string]*models.PlayerRating)
	seen := make(map[models.MatchKey]struct{})
	player := func(key, name string) *models.PlayerRating {
		p, ok := players[key]
		if !ok {
			p = models.NewPlayerRating(key, name)
			players[key] = p
		}
		return p
	}

	overall := newAccumulator(r.config.CalibrationBuckets)
	bySurface := make(map[models.Surface]*accumulator)
	byYear := make(map[int]*accumulator)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, ok := matches.Next()
		if !ok {
			break
		}
		result.Processed++

		if err := m.Validate(); err != nil {
			result.Skipped++
			continue
		}
		key := m.Key()
		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		winner := player(m.WinnerKey, m.WinnerName)
		loser := player(m.LoserKey, m.LoserName)
		scored := r.config.inWindow(m.Date) &&
			winner.Matches >= r.config.MinMatches &&
			loser.Matches >= r.config.MinMatches

		d := r.engine.Apply(winner, loser, m)
		if !scored {
			continue
		}

		overall.add(d.Expected)
		if _, ok := bySurface[m.Surface]; !ok {
			bySurface[m.Surface] = newAccumulator(0)
		}
		bySurface[m.Surface].add(d.Expected)
		year := m.Date.Year()
		if _, ok := byYear[year]; !ok {
			byYear[year] = newAccumulator(0)
		}
		byYear[year].add(d.Expected)

		fav := m.WinnerKey
		if d.Expected < 0.5 {
			fav = m.LoserKey
		}
		result.Predictions = append(result.Predictions, Prediction{
			Date:     m.Date,
			Surface:  m.Surface,
			Winner:   m.WinnerKey,
			Loser:    m.LoserKey,
			PWinner:  d.Expected,
			Favorite: fav,
		})
	}
	if err := matches.Err(); err != nil {
		return nil, fmt.Errorf("match stream: %w", err)
	}

	result.Overall = overall.metrics()
	result.BySurface = make(map[models.Surface]Metrics, len(bySurface))
	for s, acc := range bySurface {
		result.BySurface[s] = acc.metrics()
	}
	result.ByYear = make(map[int]Metrics, len(byYear))
	for y, acc := range byYear {
		result.ByYear[y] = acc.metrics()
	}
	result.Duration = time.Since(start)

	r.logger.WithFields(logrus.Fields{
		"processed": result.Processed,
		"scored":    result.Overall.Scored,
		"accuracy":  result.Overall.Accuracy,
		"brier":     result.Overall.BrierScore,
		"duration":  result.Duration,
	}).Info("Backtest completed")

	return result, nil
}
