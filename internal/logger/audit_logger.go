// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for snapshot lifecycle events.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogSnapshotPublished logs the publication of a new rating snapshot.
func (al *AuditLogger) LogSnapshotPublished(previousVersion, version uint64, players, matches int, createdAt time.Time) {
	al.WithFields(logrus.Fields{
		"previous_version": previousVersion,
		"version":          version,
		"players":          players,
		"applied_matches":  matches,
		"timestamp":        createdAt.Unix(),
	}).Info("Rating snapshot published")
}

// LogSnapshotRestored logs a snapshot loaded from persistent storage.
func (al *AuditLogger) LogSnapshotRestored(version uint64, players int, source string) {
	al.WithFields(logrus.Fields{
		"version": version,
		"players": players,
		"source":  source,
	}).Info("Rating snapshot restored")
}

// LogTrainingRejected logs a training request refused because another pass holds the store.
func (al *AuditLogger) LogTrainingRejected(currentVersion uint64) {
	al.WithFields(logrus.Fields{
		"current_version": currentVersion,
	}).Warn("Training request rejected: pass already in progress")
}

// LogPersistenceFailure logs a snapshot that could not be saved and was therefore not published.
func (al *AuditLogger) LogPersistenceFailure(version uint64, err error) {
	al.WithFields(logrus.Fields{
		"version": version,
	}).WithError(err).Error("Snapshot persistence failed; previous snapshot kept")
}

// LogCacheCleared logs a manual cache flush.
func (al *AuditLogger) LogCacheCleared(entries int, requestedBy string) {
	al.WithFields(logrus.Fields{
		"entries":      entries,
		"requested_by": requestedBy,
	}).Info("Value bet cache cleared")
}
