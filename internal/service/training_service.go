package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/datasource"
	"github.com/martofrog/tennis-predictions/internal/logger"
	"github.com/martofrog/tennis-predictions/internal/metrics"
	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/rating"
	"github.com/martofrog/tennis-predictions/internal/snapshot"
)

// TrainingResult describes one completed training run
type TrainingResult struct {
	RunID    string                `json:"run_id"`
	Full     bool                  `json:"full"`
	Version  uint64                `json:"version"`
	Players  int                   `json:"players"`
	Report   rating.TrainingReport `json:"report"`
	Duration time.Duration         `json:"duration"`
	At       time.Time             `json:"at"`
}

// TrainingStatus is the state exposed by the training status endpoint
type TrainingStatus struct {
	Running         bool            `json:"running"`
	SnapshotVersion uint64          `json:"snapshot_version"`
	Players         int             `json:"players"`
	AppliedMatches  int             `json:"applied_matches"`
	LastRun         *TrainingResult `json:"last_run,omitempty"`
	LastError       string          `json:"last_error,omitempty"`
	LastErrorAt     time.Time       `json:"last_error_at,omitempty"`
}

// TrainingService runs training passes from a match source into the snapshot store
type TrainingService struct {
	source datasource.MatchSource
	engine *rating.Engine
	store  *snapshot.Store
	logger *logger.RatingLogger
	now    func() time.Time

	mu          sync.RWMutex
	lastRun     *TrainingResult
	lastError   string
	lastErrorAt time.Time
}

// NewTrainingService creates a new training service
func NewTrainingService(source datasource.MatchSource, engine *rating.Engine, store *snapshot.Store, baseLogger *logrus.Logger) *TrainingService {
	if baseLogger == nil {
		baseLogger = logger.Discard()
	}
	return &TrainingService{
		source: source,
		engine: engine,
		store:  store,
		logger: logger.NewRatingLogger(baseLogger),
		now:    time.Now,
	}
}

// Retrain folds the source into the published snapshot. An incremental run
// starts from the current snapshot and skips matches it already holds; a full
// run starts from an empty table. Concurrent runs fail with ErrTrainingInProgress.
func (s *TrainingService) Retrain(ctx context.Context, full bool) (*TrainingResult, error) {
	runID := uuid.NewString()
	start := s.now()

	var report rating.TrainingReport
	s.logger.LogTrainingStarted(runID, s.store.Current().Version(), full)

	snap, err := s.store.Train(ctx, func(current *models.RatingSnapshot) (*models.RatingSnapshot, error) {
		base := current
		if full {
			base = models.EmptySnapshot()
		}

		stream, err := s.source.Matches(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", models.ErrTrainingFailed, s.source.Name(), err)
		}
		defer stream.Close()

		next, rep, err := s.engine.TrainingPass(base, stream)
		report = rep
		return next, err
	})
	duration := s.now().Sub(start)

	if errors.Is(err, models.ErrTrainingInProgress) {
		metrics.RecordTrainingPass(metrics.StatusRejected, 0)
		return nil, err
	}
	if err != nil {
		metrics.RecordTrainingPass(metrics.StatusFailed, duration.Seconds())
		s.logger.LogTrainingFailed(runID, err)
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastErrorAt = s.now().UTC()
		s.mu.Unlock()
		return nil, err
	}

	metrics.RecordTrainingPass(metrics.StatusSuccess, duration.Seconds())
	metrics.RecordTrainingReport(report.Applied, report.SkippedByReason)
	metrics.UpdateSnapshot(snap.Version(), snap.Len())
	if report.Skipped > 0 {
		s.logger.LogSkippedMatches(runID, report.SkippedByReason)
	}
	s.logger.LogTrainingCompleted(runID, snap.Version(), report.Processed, report.Applied,
		report.Duplicates, report.Skipped, snap.Len(), duration)

	result := &TrainingResult{
		RunID:    runID,
		Full:     full,
		Version:  snap.Version(),
		Players:  snap.Len(),
		Report:   report,
		Duration: duration,
		At:       s.now().UTC(),
	}
	s.mu.Lock()
	s.lastRun = result
	s.lastError = ""
	s.lastErrorAt = time.Time{}
	s.mu.Unlock()
	return result, nil
}

// Status reports the published snapshot and the outcome of the last run
func (s *TrainingService) Status() TrainingStatus {
	current := s.store.Current()
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := TrainingStatus{
		Running:         s.store.IsTraining(),
		SnapshotVersion: current.Version(),
		Players:         current.Len(),
		AppliedMatches:  current.AppliedCount(),
		LastError:       s.lastError,
		LastErrorAt:     s.lastErrorAt,
	}
	if s.lastRun != nil {
		run := *s.lastRun
		status.LastRun = &run
	}
	return status
}

// DataStatus describes the historical data available to training
func (s *TrainingService) DataStatus(ctx context.Context) (*datasource.DataStatus, error) {
	reporter, ok := s.source.(datasource.DataStatusReporter)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot report data status", datasource.ErrSourceDisabled, s.source.Name())
	}
	status, err := reporter.DataStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read data status from %s: %w", s.source.Name(), err)
	}
	return status, nil
}
