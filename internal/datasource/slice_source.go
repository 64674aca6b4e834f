package datasource

import (
	"context"
	"sort"

	"github.com/martofrog/tennis-predictions/internal/models"
)

const sliceSourceName = "slice"

// SliceMatchSource serves matches held in memory
type SliceMatchSource struct {
	matches []models.Match
}

// NewSliceMatchSource copies matches and orders them by date
func NewSliceMatchSource(matches []models.Match) *SliceMatchSource {
	sorted := append([]models.Match(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return &SliceMatchSource{matches: sorted}
}

func (s *SliceMatchSource) Name() string {
	return sliceSourceName
}

func (s *SliceMatchSource) Matches(ctx context.Context) (MatchStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.stream(s.matches), nil
}

func (s *SliceMatchSource) stream(matches []models.Match) MatchStream {
	return &sliceStream{matches: matches}
}

type sliceStream struct {
	matches []models.Match
	pos     int
}

func (it *sliceStream) Next() (models.Match, bool) {
	if it.pos >= len(it.matches) {
		return models.Match{}, false
	}
	m := it.matches[it.pos]
	it.pos++
	return m, true
}

func (it *sliceStream) Err() error   { return nil }
func (it *sliceStream) Close() error { return nil }

// StaticOddsSource serves fixed markets
type StaticOddsSource struct {
	markets []models.MarketOdds
	err     error
}

// NewStaticOddsSource returns a source that always yields markets
func NewStaticOddsSource(markets []models.MarketOdds) *StaticOddsSource {
	return &StaticOddsSource{markets: markets}
}

// NewFailingOddsSource returns a source that always fails with err
func NewFailingOddsSource(err error) *StaticOddsSource {
	return &StaticOddsSource{err: err}
}

func (s *StaticOddsSource) Name() string {
	return "static_odds"
}

func (s *StaticOddsSource) FetchOdds(ctx context.Context) ([]models.MarketOdds, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.MarketOdds, len(s.markets))
	for i, m := range s.markets {
		m.Quotes = append([]models.OddsQuote(nil), m.Quotes...)
		out[i] = m
	}
	return out, nil
}
