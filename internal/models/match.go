package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date layout used in match keys
const DateLayout = "2006-01-02"

// MatchKey identifies a match for deduplication
type MatchKey struct {
	Date   string `db:"match_date" json:"date"`
	Winner string `db:"winner_key" json:"winner"`
	Loser  string `db:"loser_key" json:"loser"`
}

func (k MatchKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Date, k.Winner, k.Loser)
}

// Less orders keys by date, then winner, then loser
func (k MatchKey) Less(o MatchKey) bool {
	if k.Date != o.Date {
		return k.Date < o.Date
	}
	if k.Winner != o.Winner {
		return k.Winner < o.Winner
	}
	return k.Loser < o.Loser
}

// Match is a completed match in canonical form
type Match struct {
	Date       time.Time `json:"date"`
	Surface    Surface   `json:"surface"`
	Tour       Tour      `json:"tour,omitempty"`
	Tournament string    `json:"tournament,omitempty"`
	WinnerKey  string    `json:"winner_key"`
	LoserKey   string    `json:"loser_key"`
	WinnerName string    `json:"winner_name,omitempty"`
	LoserName  string    `json:"loser_name,omitempty"`
	WinnerSets int       `json:"winner_sets"`
	LoserSets  int       `json:"loser_sets"`
	// Retired marks a match that ended early; it is rated with a neutral margin.
	Retired bool `json:"retired,omitempty"`
}

// Key returns the deduplication key
func (m Match) Key() MatchKey {
	return MatchKey{
		Date:   m.Date.UTC().Format(DateLayout),
		Winner: m.WinnerKey,
		Loser:  m.LoserKey,
	}
}

// SetMargin returns winner sets minus loser sets
func (m Match) SetMargin() int {
	return m.WinnerSets - m.LoserSets
}

// Validate reports why a match cannot be rated, or nil
func (m Match) Validate() error {
	if m.WinnerKey == "" || m.LoserKey == "" || m.WinnerKey == m.LoserKey {
		return ErrMissingPlayer
	}
	if !m.Surface.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSurface, string(m.Surface))
	}
	if m.WinnerSets < 0 || m.LoserSets < 0 || m.SetMargin() <= 0 {
		return fmt.Errorf("%w: %d-%d", ErrNonPositiveMargin, m.WinnerSets, m.LoserSets)
	}
	return nil
}

// MatchIterator yields matches in ascending date order.
// Err reports a failure that stopped iteration early.
type MatchIterator interface {
	Next() (Match, bool)
	Err() error
}
