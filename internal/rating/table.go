package rating

import (
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
)

// table is the private, mutable working copy of a snapshot during a pass
type table struct {
	players map[string]*models.PlayerRating
	keys    map[models.MatchKey]struct{}
}

func newTable(base *models.RatingSnapshot) *table {
	t := &table{
		players: make(map[string]*models.PlayerRating, base.Len()),
		keys:    make(map[models.MatchKey]struct{}, base.AppliedCount()),
	}
	for _, p := range base.Players() {
		t.players[p.Key] = p
	}
	for _, k := range base.AppliedKeys() {
		t.keys[k] = struct{}{}
	}
	return t
}

// player returns the record for key, creating a cold-start record on first sight
func (t *table) player(key, name string) *models.PlayerRating {
	if p, ok := t.players[key]; ok {
		if p.Name == p.Key && name != "" {
			p.Name = name
		}
		return p
	}
	p := models.NewPlayerRating(key, name)
	t.players[key] = p
	return p
}

func (t *table) applied(k models.MatchKey) bool {
	_, ok := t.keys[k]
	return ok
}

func (t *table) markApplied(k models.MatchKey) {
	t.keys[k] = struct{}{}
}

func (t *table) snapshot(version uint64, at time.Time) *models.RatingSnapshot {
	players := make([]*models.PlayerRating, 0, len(t.players))
	for _, p := range t.players {
		players = append(players, p)
	}
	keys := make([]models.MatchKey, 0, len(t.keys))
	for k := range t.keys {
		keys = append(keys, k)
	}
	return models.NewRatingSnapshot(version, at, players, keys)
}
