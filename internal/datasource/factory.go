package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/config"
	"github.com/martofrog/tennis-predictions/internal/models"
)

// Factory creates sources based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// NewMatchSource creates the CSV match source for the configured tours and years
func (f *Factory) NewMatchSource() (MatchSource, error) {
	tours, err := parseTours(f.config.Data.Tours)
	if err != nil {
		return nil, err
	}
	return NewCSVMatchSource(f.config.Data.MatchesDir, tours, f.config.Data.StartYear, f.config.Data.EndYear, f.logger), nil
}

// NewOddsSource creates The Odds API source. It returns ErrSourceDisabled when
// the provider is switched off.
func (f *Factory) NewOddsSource() (OddsSource, error) {
	cfg := f.config.OddsAPI
	if !cfg.Enabled {
		return nil, ErrSourceDisabled
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("odds API key is required")
	}

	tours, err := parseTours(f.config.Betting.Tours)
	if err != nil {
		return nil, err
	}
	sportKeys := make(map[models.Tour]string, len(tours))
	for _, t := range tours {
		sportKeys[t] = cfg.SportKeys[string(t)]
	}

	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	httpCfg.MaxRetries = cfg.RetryMax
	httpCfg.RateLimit = cfg.RequestsPerSecond
	if cfg.Burst > 0 {
		httpCfg.Burst = cfg.Burst
	}

	client := NewRateLimitedHTTPClient(httpCfg, f.logger)
	return NewOddsAPISource(client, OddsAPIConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Regions:    cfg.Regions,
		SportKeys:  sportKeys,
		OddsFormat: cfg.OddsFormat,
	}, f.logger), nil
}

func parseTours(raw []string) ([]models.Tour, error) {
	tours := make([]models.Tour, 0, len(raw))
	for _, r := range raw {
		t, err := models.ParseTour(r)
		if err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, nil
}
