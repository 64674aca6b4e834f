// Package repository persists rating snapshots in SQL stores.
package repository

import (
	"context"
	"fmt"

	"github.com/martofrog/tennis-predictions/internal/config"
	"github.com/martofrog/tennis-predictions/internal/database"
	"github.com/martofrog/tennis-predictions/internal/snapshot"
)

// DefaultRetainedVersions is how many snapshot versions the SQL stores keep
const DefaultRetainedVersions = 5

// Repositories holds the snapshot repository selected by configuration
type Repositories struct {
	Snapshots snapshot.Repository
	Driver    string

	health func(ctx context.Context) error
	close  func() error
}

// Open creates the snapshot repository for the configured storage driver
func Open(ctx context.Context, cfg *config.StorageConfig) (*Repositories, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage configuration is required")
	}

	switch cfg.Driver {
	case config.StorageDriverFile, "":
		return &Repositories{
			Snapshots: snapshot.NewFileRepository(cfg.FilePath),
			Driver:    config.StorageDriverFile,
		}, nil

	case config.StorageDriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &Repositories{
			Snapshots: NewSQLiteSnapshotRepository(db),
			Driver:    cfg.Driver,
			health:    db.HealthCheck,
			close:     db.Close,
		}, nil

	case config.StorageDriverPostgres:
		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Repositories{
			Snapshots: NewPostgresSnapshotRepository(db),
			Driver:    cfg.Driver,
			health:    db.HealthCheck,
			close: func() error {
				db.Close()
				return nil
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// HealthCheck verifies the backing store is reachable
func (r *Repositories) HealthCheck(ctx context.Context) error {
	if r.health == nil {
		return nil
	}
	return r.health(ctx)
}

// Close releases database connections
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
