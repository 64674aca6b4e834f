package backtest

import (
	"fmt"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
)

// DefaultCalibrationBuckets is the number of equal-width favourite probability buckets over [0.5, 1]
const DefaultCalibrationBuckets = 5

// Config selects which predictions are scored. Matches outside the window
// still update ratings so the table is warm when scoring starts.
type Config struct {
	StartDate time.Time
	EndDate   time.Time
	// MinMatches is the history both players need before a prediction counts.
	MinMatches         int
	CalibrationBuckets int
}

// ParseConfig builds a config from YYYY-MM-DD bounds; empty bounds are open
func ParseConfig(start, end string, minMatches int) (Config, error) {
	cfg := Config{MinMatches: minMatches, CalibrationBuckets: DefaultCalibrationBuckets}
	var err error
	if start != "" {
		if cfg.StartDate, err = time.Parse(models.DateLayout, start); err != nil {
			return Config{}, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if end != "" {
		if cfg.EndDate, err = time.Parse(models.DateLayout, end); err != nil {
			return Config{}, fmt.Errorf("invalid end date: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate validates backtest config parameters
func (c Config) Validate() error {
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.StartDate.After(c.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}
	if c.MinMatches < 0 {
		return fmt.Errorf("min matches cannot be negative")
	}
	if c.CalibrationBuckets < 0 {
		return fmt.Errorf("calibration buckets cannot be negative")
	}
	return nil
}

func (c Config) inWindow(d time.Time) bool {
	if !c.StartDate.IsZero() && d.Before(c.StartDate) {
		return false
	}
	// EndDate is inclusive of the whole day.
	if !c.EndDate.IsZero() && !d.Before(c.EndDate.AddDate(0, 0, 1)) {
		return false
	}
	return true
}
