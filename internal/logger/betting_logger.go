// Package logger provides value-bet scan logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BettingLogger provides dedicated logging for value-bet scans.
type BettingLogger struct {
	*logrus.Entry
}

// NewBettingLogger creates a new betting logger.
func NewBettingLogger(baseLogger *logrus.Logger) *BettingLogger {
	return &BettingLogger{
		Entry: baseLogger.WithField("component", "betting"),
	}
}

// LogScanCompleted logs a finished value-bet scan.
func (bl *BettingLogger) LogScanCompleted(snapshotVersion uint64, markets, valueBets, arbitrage int, threshold float64, duration time.Duration) {
	bl.WithFields(logrus.Fields{
		"snapshot_version": snapshotVersion,
		"markets":          markets,
		"value_bets":       valueBets,
		"arbitrage":        arbitrage,
		"threshold":        threshold,
		"duration_ms":      duration.Milliseconds(),
	}).Info("Value bet scan completed")
}

// LogValueBet logs a single value bet.
func (bl *BettingLogger) LogValueBet(matchRef, selection, bookmaker string, price, modelProbability, edge, ev float64) {
	bl.WithFields(logrus.Fields{
		"match_ref":         matchRef,
		"selection":         selection,
		"bookmaker":         bookmaker,
		"price":             price,
		"model_probability": modelProbability,
		"edge":              edge,
		"expected_value":    ev,
	}).Info("Value bet found")
}

// LogArbitrage logs an arbitrage opportunity.
func (bl *BettingLogger) LogArbitrage(matchRef string, impliedSum, margin float64) {
	bl.WithFields(logrus.Fields{
		"match_ref":     matchRef,
		"implied_sum":   impliedSum,
		"profit_margin": margin,
	}).Info("Arbitrage opportunity found")
}

// LogExcludedBookmakers logs bookmakers dropped from a market for invalid quotes.
func (bl *BettingLogger) LogExcludedBookmakers(matchRef string, bookmakers []string) {
	if len(bookmakers) == 0 {
		return
	}
	bl.WithFields(logrus.Fields{
		"match_ref":  matchRef,
		"bookmakers": bookmakers,
	}).Debug("Bookmakers excluded from market")
}
