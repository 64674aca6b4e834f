package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/martofrog/tennis-predictions/internal/database"
	"github.com/martofrog/tennis-predictions/internal/models"
)

// SQLiteSnapshotRepository stores each snapshot version as a JSON payload row
type SQLiteSnapshotRepository struct {
	db     *database.SQLiteDB
	retain int
}

// NewSQLiteSnapshotRepository creates a new snapshot repository
func NewSQLiteSnapshotRepository(db *database.SQLiteDB) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{db: db, retain: DefaultRetainedVersions}
}

// Load returns the highest stored version, or the empty snapshot when none exists
func (r *SQLiteSnapshotRepository) Load(ctx context.Context) (*models.RatingSnapshot, error) {
	var payload []byte
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT payload FROM rating_snapshots
		ORDER BY version DESC
		LIMIT 1
	`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var snap models.RatingSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot payload: %w", err)
	}
	return &snap, nil
}

// Save inserts the snapshot and prunes old versions in one transaction
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, snap *models.RatingSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	version := int64(snap.Version())
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rating_snapshots (version, created_at, player_count, applied_count, payload)
		VALUES (?, ?, ?, ?, ?)
	`, version, snap.CreatedAt().UTC(), snap.Len(), snap.AppliedCount(), payload); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rating_snapshots WHERE version <= ?`, version-int64(r.retain)); err != nil {
		return fmt.Errorf("pruning snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Versions lists the stored snapshot versions, newest first
func (r *SQLiteSnapshotRepository) Versions(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `SELECT version FROM rating_snapshots ORDER BY version DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	var versions []uint64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, uint64(v))
	}
	return versions, rows.Err()
}
