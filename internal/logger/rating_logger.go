// Package logger provides rating-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RatingLogger provides dedicated logging for training passes.
type RatingLogger struct {
	*logrus.Entry
}

// NewRatingLogger creates a new rating logger.
func NewRatingLogger(baseLogger *logrus.Logger) *RatingLogger {
	return &RatingLogger{
		Entry: baseLogger.WithField("component", "rating"),
	}
}

// LogTrainingStarted logs the start of a training pass.
func (rl *RatingLogger) LogTrainingStarted(runID string, baseVersion uint64, full bool) {
	rl.WithFields(logrus.Fields{
		"run_id":       runID,
		"base_version": baseVersion,
		"full_retrain": full,
	}).Info("Training pass started")
}

// LogTrainingCompleted logs a finished training pass.
func (rl *RatingLogger) LogTrainingCompleted(runID string, version uint64, processed, applied, duplicates, skipped, players int, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"run_id":      runID,
		"version":     version,
		"processed":   processed,
		"applied":     applied,
		"duplicates":  duplicates,
		"skipped":     skipped,
		"players":     players,
		"duration_ms": duration.Milliseconds(),
	}).Info("Training pass completed")
}

// LogSkippedMatches logs the per-reason breakdown of skipped records.
func (rl *RatingLogger) LogSkippedMatches(runID string, byReason map[string]int) {
	if len(byReason) == 0 {
		return
	}
	fields := logrus.Fields{"run_id": runID}
	for reason, n := range byReason {
		fields["skipped_"+reason] = n
	}
	rl.WithFields(fields).Warn("Malformed matches skipped")
}

// LogTrainingFailed logs a failed pass.
func (rl *RatingLogger) LogTrainingFailed(runID string, err error) {
	rl.WithFields(logrus.Fields{
		"run_id": runID,
	}).WithError(err).Error("Training pass failed")
}
