package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRating is the cold-start rating for every track
const DefaultRating = 1500.0

var titleCaser = cases.Title(language.Und)

// NormalizeKey turns a display name into the canonical player key.
// Whitespace is trimmed and collapsed and each word is title-cased.
func NormalizeKey(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if collapsed == "" {
		return ""
	}
	return titleCaser.String(collapsed)
}

// PlayerRating is the rating record of a single player
type PlayerRating struct {
	Key            string              `db:"player_key" json:"key"`
	Name           string              `db:"name" json:"name"`
	Overall        float64             `db:"overall_rating" json:"overall_rating"`
	Surfaces       map[Surface]float64 `json:"surface_ratings"`
	Matches        int                 `db:"matches_played" json:"matches_played"`
	SurfaceMatches map[Surface]int     `json:"surface_matches"`
	LastMatch      time.Time           `db:"last_match" json:"last_match,omitempty"`
}

// NewPlayerRating returns a player at the default rating with no history
func NewPlayerRating(key, name string) *PlayerRating {
	if name == "" {
		name = key
	}
	return &PlayerRating{
		Key:            key,
		Name:           name,
		Overall:        DefaultRating,
		Surfaces:       make(map[Surface]float64),
		SurfaceMatches: make(map[Surface]int),
	}
}

// SurfaceRating returns the rating on s, defaulting when the player has never played there
func (p *PlayerRating) SurfaceRating(s Surface) float64 {
	if r, ok := p.Surfaces[s]; ok {
		return r
	}
	return DefaultRating
}

// SurfaceCount returns the number of matches played on s
func (p *PlayerRating) SurfaceCount(s Surface) int {
	return p.SurfaceMatches[s]
}

// Clone returns a deep copy
func (p *PlayerRating) Clone() *PlayerRating {
	c := *p
	c.Surfaces = make(map[Surface]float64, len(p.Surfaces))
	for s, r := range p.Surfaces {
		c.Surfaces[s] = r
	}
	c.SurfaceMatches = make(map[Surface]int, len(p.SurfaceMatches))
	for s, n := range p.SurfaceMatches {
		c.SurfaceMatches[s] = n
	}
	return &c
}

// Validate checks that every rating is finite
func (p *PlayerRating) Validate() error {
	if p.Key == "" {
		return ErrMissingPlayer
	}
	if !finite(p.Overall) {
		return fmt.Errorf("%w: %s overall=%v", ErrInvalidRating, p.Key, p.Overall)
	}
	for s, r := range p.Surfaces {
		if !finite(r) {
			return fmt.Errorf("%w: %s %s=%v", ErrInvalidRating, p.Key, s, r)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
