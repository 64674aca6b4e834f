package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/martofrog/tennis-predictions/internal/database"
	"github.com/martofrog/tennis-predictions/internal/models"
)

// PostgresSnapshotRepository stores snapshots as normalized rows in PostgreSQL
type PostgresSnapshotRepository struct {
	db     *database.DB
	retain int
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db, retain: DefaultRetainedVersions}
}

// Load returns the highest stored version, or the empty snapshot when none exists
func (r *PostgresSnapshotRepository) Load(ctx context.Context) (*models.RatingSnapshot, error) {
	pool := r.db.GetPool()

	var (
		version   int64
		createdAt time.Time
	)
	err := pool.QueryRow(ctx, `
		SELECT version, created_at
		FROM rating_snapshots
		ORDER BY version DESC
		LIMIT 1
	`).Scan(&version, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EmptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	players, err := r.loadPlayers(ctx, version)
	if err != nil {
		return nil, err
	}
	applied, err := r.loadApplied(ctx, version)
	if err != nil {
		return nil, err
	}

	list := make([]*models.PlayerRating, 0, len(players))
	for _, p := range players {
		list = append(list, p)
	}
	return models.NewRatingSnapshot(uint64(version), createdAt.UTC(), list, applied), nil
}

func (r *PostgresSnapshotRepository) loadPlayers(ctx context.Context, version int64) (map[string]*models.PlayerRating, error) {
	pool := r.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT player_key, name, overall_rating, matches_played, last_match
		FROM player_ratings
		WHERE version = $1
	`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query player ratings: %w", err)
	}
	defer rows.Close()

	players := make(map[string]*models.PlayerRating)
	for rows.Next() {
		var (
			key, name string
			overall   float64
			matches   int
			last      *time.Time
		)
		if err := rows.Scan(&key, &name, &overall, &matches, &last); err != nil {
			return nil, fmt.Errorf("failed to scan player rating: %w", err)
		}
		p := models.NewPlayerRating(key, name)
		p.Overall = overall
		p.Matches = matches
		if last != nil {
			p.LastMatch = last.UTC()
		}
		players[key] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player ratings: %w", err)
	}

	surfaceRows, err := pool.Query(ctx, `
		SELECT player_key, surface, rating, matches_played
		FROM surface_ratings
		WHERE version = $1
	`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query surface ratings: %w", err)
	}
	defer surfaceRows.Close()

	for surfaceRows.Next() {
		var (
			key, surface string
			rating       float64
			matches      int
		)
		if err := surfaceRows.Scan(&key, &surface, &rating, &matches); err != nil {
			return nil, fmt.Errorf("failed to scan surface rating: %w", err)
		}
		p, ok := players[key]
		if !ok {
			return nil, fmt.Errorf("surface rating for unknown player %q", key)
		}
		s := models.Surface(surface)
		p.Surfaces[s] = rating
		p.SurfaceMatches[s] = matches
	}
	if err := surfaceRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating surface ratings: %w", err)
	}

	return players, nil
}

func (r *PostgresSnapshotRepository) loadApplied(ctx context.Context, version int64) ([]models.MatchKey, error) {
	rows, err := r.db.GetPool().Query(ctx, `
		SELECT match_date, winner_key, loser_key
		FROM applied_matches
		WHERE version = $1
	`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied matches: %w", err)
	}
	defer rows.Close()

	var applied []models.MatchKey
	for rows.Next() {
		var (
			date          time.Time
			winner, loser string
		)
		if err := rows.Scan(&date, &winner, &loser); err != nil {
			return nil, fmt.Errorf("failed to scan applied match: %w", err)
		}
		applied = append(applied, models.MatchKey{
			Date:   date.Format(models.DateLayout),
			Winner: winner,
			Loser:  loser,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applied matches: %w", err)
	}
	return applied, nil
}

// Save writes the snapshot and prunes old versions in one transaction
func (r *PostgresSnapshotRepository) Save(ctx context.Context, snap *models.RatingSnapshot) error {
	version := int64(snap.Version())
	players := snap.Players()
	applied := snap.AppliedKeys()

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO rating_snapshots (version, created_at, player_count, applied_count)
			VALUES ($1, $2, $3, $4)
		`, version, snap.CreatedAt(), len(players), len(applied))
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		playerRows := make([][]any, 0, len(players))
		var surfaceRows [][]any
		for _, p := range players {
			var last any
			if !p.LastMatch.IsZero() {
				last = p.LastMatch
			}
			playerRows = append(playerRows, []any{version, p.Key, p.Name, p.Overall, p.Matches, last})
			for _, s := range models.Surfaces {
				if rating, ok := p.Surfaces[s]; ok {
					surfaceRows = append(surfaceRows, []any{version, p.Key, string(s), rating, p.SurfaceMatches[s]})
				}
			}
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"player_ratings"},
			[]string{"version", "player_key", "name", "overall_rating", "matches_played", "last_match"},
			pgx.CopyFromRows(playerRows)); err != nil {
			return fmt.Errorf("failed to copy player ratings: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"surface_ratings"},
			[]string{"version", "player_key", "surface", "rating", "matches_played"},
			pgx.CopyFromRows(surfaceRows)); err != nil {
			return fmt.Errorf("failed to copy surface ratings: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"applied_matches"},
			[]string{"version", "match_date", "winner_key", "loser_key"},
			pgx.CopyFromSlice(len(applied), func(i int) ([]any, error) {
				date, err := time.Parse(models.DateLayout, applied[i].Date)
				if err != nil {
					return nil, fmt.Errorf("invalid applied match date %q: %w", applied[i].Date, err)
				}
				return []any{version, date, applied[i].Winner, applied[i].Loser}, nil
			})); err != nil {
			return fmt.Errorf("failed to copy applied matches: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM rating_snapshots WHERE version <= $1`, version-int64(r.retain)); err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
		return nil
	})
}
