package metrics

import "github.com/prometheus/client_golang/prometheus"

// Training status label values
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
)

var (
	TrainingPassesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "training_passes_total",
		Help:      "Total number of training passes by status",
	}, []string{"status"})

	MatchesAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_applied_total",
		Help:      "Total number of matches applied to ratings",
	})

	MatchesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_skipped_total",
		Help:      "Total number of matches skipped by reason",
	}, []string{"reason"})

	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "training_duration_seconds",
		Help:      "Duration of training passes in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})

	SnapshotVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_version",
		Help:      "Version of the published rating snapshot",
	})

	PlayersRated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "players_rated",
		Help:      "Number of players in the published rating snapshot",
	})
)

// RecordTrainingPass records the outcome of one training pass.
func RecordTrainingPass(status string, durationSeconds float64) {
	TrainingPassesTotal.WithLabelValues(status).Inc()
	if status != StatusRejected {
		TrainingDuration.Observe(durationSeconds)
	}
}

// RecordTrainingReport adds applied and skipped counts.
func RecordTrainingReport(applied int, skippedByReason map[string]int) {
	MatchesAppliedTotal.Add(float64(applied))
	for reason, n := range skippedByReason {
		MatchesSkippedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// UpdateSnapshot sets the published snapshot gauges.
func UpdateSnapshot(version uint64, players int) {
	SnapshotVersion.Set(float64(version))
	PlayersRated.Set(float64(players))
}
