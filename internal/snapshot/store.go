// Package snapshot publishes immutable rating snapshots to concurrent readers.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/martofrog/tennis-predictions/internal/logger"
	"github.com/martofrog/tennis-predictions/internal/models"
)

// Repository persists rating snapshots. Save must be atomic-or-nothing and
// Load must return an empty snapshot, not an error, when nothing was saved yet.
type Repository interface {
	Load(ctx context.Context) (*models.RatingSnapshot, error)
	Save(ctx context.Context, snap *models.RatingSnapshot) error
}

// TrainFunc computes the next snapshot from the currently published one
type TrainFunc func(current *models.RatingSnapshot) (*models.RatingSnapshot, error)

// Store holds the published snapshot. Readers never block; at most one
// training pass runs at a time.
type Store struct {
	current  atomic.Pointer[models.RatingSnapshot]
	training sync.Mutex
	busy     atomic.Bool
	repo     Repository
	audit    *logger.AuditLogger
	now      func() time.Time
}

// NewStore creates a store publishing the empty snapshot. repo may be nil.
func NewStore(repo Repository, audit *logger.AuditLogger) *Store {
	if audit == nil {
		audit = logger.NewAuditLogger(logger.Discard())
	}
	s := &Store{repo: repo, audit: audit, now: time.Now}
	s.current.Store(models.EmptySnapshot())
	return s
}

// Current returns the published snapshot
func (s *Store) Current() *models.RatingSnapshot {
	return s.current.Load()
}

// IsTraining reports whether a training pass holds the store
func (s *Store) IsTraining() bool {
	return s.busy.Load()
}

// Restore publishes the snapshot found in the repository
func (s *Store) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	if !s.training.TryLock() {
		return models.ErrTrainingInProgress
	}
	defer s.training.Unlock()

	snap, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rating snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("failed to restore rating snapshot: %w", err)
	}
	s.current.Store(snap)
	s.audit.LogSnapshotRestored(snap.Version(), snap.Len(), fmt.Sprintf("%T", s.repo))
	return nil
}

// Train runs fn against the current snapshot and publishes its result.
// A concurrent call returns ErrTrainingInProgress. When fn fails, returns nil,
// or the repository cannot save the result, nothing is published and the
// previous snapshot stays visible.
func (s *Store) Train(ctx context.Context, fn TrainFunc) (*models.RatingSnapshot, error) {
	if !s.training.TryLock() {
		s.audit.LogTrainingRejected(s.Current().Version())
		return nil, models.ErrTrainingInProgress
	}
	defer s.training.Unlock()
	s.busy.Store(true)
	defer s.busy.Store(false)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prev := s.Current()
	next, err := fn(prev)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("%w: no snapshot produced", models.ErrTrainingFailed)
	}

	next = next.WithVersion(prev.Version()+1, s.now().UTC())

	if s.repo != nil {
		if err := s.repo.Save(ctx, next); err != nil {
			s.audit.LogPersistenceFailure(next.Version(), err)
			return nil, fmt.Errorf("failed to save rating snapshot: %w", err)
		}
	}

	if !s.current.CompareAndSwap(prev, next) {
		return nil, errors.New("rating snapshot changed during training")
	}
	s.audit.LogSnapshotPublished(prev.Version(), next.Version(), next.Len(), next.AppliedCount(), next.CreatedAt())
	return next, nil
}
