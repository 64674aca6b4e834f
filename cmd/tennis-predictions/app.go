package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/config"
	"github.com/martofrog/tennis-predictions/internal/datasource"
	"github.com/martofrog/tennis-predictions/internal/logger"
	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/notify"
	"github.com/martofrog/tennis-predictions/internal/publisher"
	"github.com/martofrog/tennis-predictions/internal/rating"
	"github.com/martofrog/tennis-predictions/internal/repository"
	"github.com/martofrog/tennis-predictions/internal/service"
	"github.com/martofrog/tennis-predictions/internal/snapshot"
	"github.com/martofrog/tennis-predictions/internal/valuebet"
)

// app holds the wired services shared by every command
type app struct {
	repos       *repository.Repositories
	store       *snapshot.Store
	engine      *rating.Engine
	matches     datasource.MatchSource
	predictions *service.PredictionService
	training    *service.TrainingService
	betting     *service.BettingService
	closers     []func() error
}

func ratingConfig(c config.RatingConfig) rating.Config {
	return rating.Config{
		ProvisionalK:           c.ProvisionalK,
		StandardK:              c.StandardK,
		ProvisionalMatches:     c.ProvisionalMatches,
		BlendMinSurfaceMatches: c.BlendMinSurfaceMatches,
		SurfaceWeight:          c.SurfaceWeight,
		OverallWeight:          c.OverallWeight,
		MarginStep:             c.MarginStep,
		MaxMarginMultiplier:    c.MaxMarginMultiplier,
		DecayEnabled:           c.Decay.Enabled,
		DecayGraceMonths:       c.Decay.GraceMonths,
		DecayMonthlyRate:       c.Decay.MonthlyRate,
		DecayFloor:             c.Decay.Floor,
	}
}

func detectorConfig(c config.BettingConfig) valuebet.Config {
	return valuebet.Config{
		Threshold:     c.EdgeThreshold,
		KellyFraction: c.KellyFraction,
		MaxStake:      c.MaxStake,
		StrongBetEV:   c.StrongBetEV,
		BetEV:         c.BetEV,
	}
}

// newApp opens storage, restores the last snapshot and wires the services.
// Odds sources are optional; a disabled provider leaves betting without a source.
func newApp(ctx context.Context) (*app, error) {
	repos, err := repository.Open(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a := &app{repos: repos, closers: []func() error{repos.Close}}

	a.engine, err = rating.NewEngine(ratingConfig(cfg.Rating), appLog)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid rating configuration: %w", err)
	}

	a.store = snapshot.NewStore(repos.Snapshots, logger.NewAuditLogger(appLog))
	if err := a.store.Restore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	factory := datasource.NewFactory(cfg, appLog)
	matches, err := factory.NewMatchSource()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create match source: %w", err)
	}
	a.matches = matches

	var odds datasource.OddsSource
	switch src, err := factory.NewOddsSource(); {
	case errors.Is(err, datasource.ErrSourceDisabled):
		appLog.Debug("Odds provider disabled")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("failed to create odds source: %w", err)
	default:
		odds = src
	}

	a.predictions = service.NewPredictionService(a.store, a.engine)
	a.training = service.NewTrainingService(matches, a.engine, a.store, appLog)
	a.betting = service.NewBettingService(odds, a.predictions, valuebet.NewDetector(detectorConfig(cfg.Betting)),
		service.BettingConfig{
			DefaultSurface: models.Surface(cfg.Betting.DefaultSurface),
			CacheTTL:       cfg.CacheTTL(),
		}, appLog)

	appLog.WithFields(logrus.Fields{
		"snapshot_version": a.store.Current().Version(),
		"players":          a.store.Current().Len(),
		"storage":          repos.Driver,
	}).Info("Rating snapshot loaded")
	return a, nil
}

// attachSinks connects the configured redis and telegram destinations to the betting service
func (a *app) attachSinks(ctx context.Context) error {
	if cfg.Redis.Enabled {
		client, err := publisher.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		a.betting.AddSink(publisher.NewStreamPublisher(client, cfg.Redis.StreamPrefix))
		appLog.WithField("addr", cfg.Redis.Addr).Info("Publishing value bets to redis streams")
	}
	if cfg.Telegram.Enabled {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram, appLog)
		if err != nil {
			return err
		}
		a.betting.AddSink(notifier)
		appLog.Info("Sending value-bet alerts to telegram")
	}
	return nil
}

// Close releases storage and sink connections
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			appLog.WithError(err).Error("Failed to close resource")
		}
	}
}
