package models

import (
	"encoding/json"
	"sort"
	"time"
)

// RatingSnapshot is an immutable, versioned view of every player's ratings.
// Accessors return copies so published snapshots can be shared freely between goroutines.
type RatingSnapshot struct {
	version   uint64
	createdAt time.Time
	players   map[string]*PlayerRating
	applied   map[MatchKey]struct{}
}

// NewRatingSnapshot builds a snapshot from players and the keys of matches already applied.
// The snapshot takes ownership of players; callers must not modify them afterwards.
func NewRatingSnapshot(version uint64, createdAt time.Time, players []*PlayerRating, applied []MatchKey) *RatingSnapshot {
	s := &RatingSnapshot{
		version:   version,
		createdAt: createdAt,
		players:   make(map[string]*PlayerRating, len(players)),
		applied:   make(map[MatchKey]struct{}, len(applied)),
	}
	for _, p := range players {
		s.players[p.Key] = p
	}
	for _, k := range applied {
		s.applied[k] = struct{}{}
	}
	return s
}

// EmptySnapshot returns the version-0 snapshot with no players
func EmptySnapshot() *RatingSnapshot {
	return NewRatingSnapshot(0, time.Time{}, nil, nil)
}

func (s *RatingSnapshot) Version() uint64 {
	return s.version
}

func (s *RatingSnapshot) CreatedAt() time.Time {
	return s.createdAt
}

// Len returns the number of rated players
func (s *RatingSnapshot) Len() int {
	return len(s.players)
}

// AppliedCount returns the number of matches folded into the snapshot
func (s *RatingSnapshot) AppliedCount() int {
	return len(s.applied)
}

// Player returns a copy of the player's rating record
func (s *RatingSnapshot) Player(key string) (*PlayerRating, bool) {
	p, ok := s.players[key]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Rating returns the overall rating, the rating on surface and the surface match count.
// Unknown players report the default rating.
func (s *RatingSnapshot) Rating(key string, surface Surface) (overall, onSurface float64, surfaceMatches int) {
	p, ok := s.players[key]
	if !ok {
		return DefaultRating, DefaultRating, 0
	}
	return p.Overall, p.SurfaceRating(surface), p.SurfaceCount(surface)
}

// Players returns copies of every record ordered by key
func (s *RatingSnapshot) Players() []*PlayerRating {
	out := make([]*PlayerRating, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// HasApplied reports whether the match key was already folded in
func (s *RatingSnapshot) HasApplied(k MatchKey) bool {
	_, ok := s.applied[k]
	return ok
}

// AppliedKeys returns the applied match keys in order
func (s *RatingSnapshot) AppliedKeys() []MatchKey {
	out := make([]MatchKey, 0, len(s.applied))
	for k := range s.applied {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// WithVersion returns a snapshot sharing this one's data under a new version stamp
func (s *RatingSnapshot) WithVersion(version uint64, createdAt time.Time) *RatingSnapshot {
	return &RatingSnapshot{
		version:   version,
		createdAt: createdAt,
		players:   s.players,
		applied:   s.applied,
	}
}

// Validate checks every player record
func (s *RatingSnapshot) Validate() error {
	for _, p := range s.players {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type snapshotJSON struct {
	Version   uint64          `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	Players   []*PlayerRating `json:"players"`
	Applied   []MatchKey      `json:"applied_matches"`
}

func (s *RatingSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Version:   s.version,
		CreatedAt: s.createdAt,
		Players:   s.Players(),
		Applied:   s.AppliedKeys(),
	})
}

func (s *RatingSnapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, p := range raw.Players {
		if p.Surfaces == nil {
			p.Surfaces = make(map[Surface]float64)
		}
		if p.SurfaceMatches == nil {
			p.SurfaceMatches = make(map[Surface]int)
		}
	}
	*s = *NewRatingSnapshot(raw.Version, raw.CreatedAt, raw.Players, raw.Applied)
	return nil
}
