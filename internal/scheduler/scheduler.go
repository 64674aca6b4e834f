// Package scheduler runs periodic training and value-bet scans.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/service"
)

const minScanInterval = 30

// Trainer runs a training pass
type Trainer interface {
	Retrain(ctx context.Context, full bool) (*service.TrainingResult, error)
}

// Scanner runs a value-bet scan
type Scanner interface {
	ScanValueBets(ctx context.Context, opts service.ScanOptions) (*service.ScanResult, error)
}

// Scheduler manages scheduled training and scan jobs
type Scheduler struct {
	cron       *cron.Cron
	trainer    Trainer
	scanner    Scanner
	logger     *logrus.Entry
	jobTimeout time.Duration
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
}

// NewScheduler creates a new scheduler. scanner may be nil when no odds source is configured.
func NewScheduler(trainer Trainer, scanner Scanner, jobTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		trainer:    trainer,
		scanner:    scanner,
		logger:     logger.WithField("component", "scheduler"),
		jobTimeout: jobTimeout,
		jobIDs:     make([]cron.EntryID, 0),
	}
}

// ScheduleTraining schedules the incremental update: retrain from the match
// source, then scan odds so new value bets reach the sinks.
func (s *Scheduler) ScheduleTraining(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.runUpdate)
	if err != nil {
		return fmt.Errorf("failed to add training job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("schedule", cronExpression).Info("Scheduled training job")
	return nil
}

// ScheduleValueBetScan schedules a value-bet scan every intervalSeconds
func (s *Scheduler) ScheduleValueBetScan(intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if s.scanner == nil {
		return fmt.Errorf("cannot schedule value-bet scan without an odds source")
	}

	if intervalSeconds < minScanInterval {
		intervalSeconds = minScanInterval
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		s.runScan(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add scan job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval_seconds", intervalSeconds).Info("Scheduled value-bet scan job")
	return nil
}

func (s *Scheduler) runUpdate() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	result, err := s.trainer.Retrain(ctx, false)
	switch {
	case errors.Is(err, models.ErrTrainingInProgress):
		s.logger.Info("Skipping scheduled training, a pass is already running")
		return
	case err != nil:
		s.logger.WithError(err).Error("Scheduled training failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"run_id":  result.RunID,
		"version": result.Version,
		"applied": result.Report.Applied,
	}).Info("Scheduled training completed")

	if s.scanner != nil {
		s.runScan(ctx)
	}
}

// upcomingScan selects the best bet per match starting within the next day
var upcomingScan = service.ScanOptions{Window: 24 * time.Hour, BestPerMatch: true}

func (s *Scheduler) runScan(ctx context.Context) {
	result, err := s.scanner.ScanValueBets(ctx, upcomingScan)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled value-bet scan failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"markets":    result.Markets,
		"value_bets": len(result.ValueBets),
		"arbitrage":  len(result.Arbitrage),
		"cached":     result.Cached,
	}).Debug("Scheduled value-bet scan completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	next := time.Time{}
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

// Jobs returns the number of scheduled jobs
func (s *Scheduler) Jobs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobIDs)
}
