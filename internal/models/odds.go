package models

import (
	"sort"
	"time"
)

// OddsQuote is one bookmaker's decimal price on one selection
type OddsQuote struct {
	Bookmaker string  `json:"bookmaker" validate:"required"`
	Selection string  `json:"selection" validate:"required"`
	Price     float64 `json:"price" validate:"required,gt=1"`
}

// ImpliedProbability returns the raw 1/price probability, or 0 for an invalid price
func (q OddsQuote) ImpliedProbability() float64 {
	if q.Price <= 1.0 {
		return 0
	}
	return 1.0 / q.Price
}

// MarketOdds holds every quote for the head-to-head market of one upcoming match
type MarketOdds struct {
	MatchRef     string      `json:"match_ref"`
	Tour         Tour        `json:"tour,omitempty"`
	Tournament   string      `json:"tournament,omitempty"`
	Surface      Surface     `json:"surface,omitempty"`
	PlayerA      string      `json:"player_a"`
	PlayerB      string      `json:"player_b"`
	CommenceTime time.Time   `json:"commence_time"`
	Quotes       []OddsQuote `json:"quotes"`
}

// Bookmakers returns the distinct bookmaker ids quoting this market, sorted
func (m MarketOdds) Bookmakers() []string {
	seen := make(map[string]struct{})
	for _, q := range m.Quotes {
		seen[q.Bookmaker] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}
