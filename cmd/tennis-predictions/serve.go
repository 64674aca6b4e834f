package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/martofrog/tennis-predictions/internal/api"
	"github.com/martofrog/tennis-predictions/internal/health"
	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/scheduler"
)

var trainOnStart bool

func init() {
	serveCmd.Flags().BoolVar(&trainOnStart, "train-on-start", false, "Run an incremental training pass before serving")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, value-bet stream and scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.attachSinks(ctx); err != nil {
			return err
		}

		var hub *api.Hub
		if cfg.API.StreamEnabled {
			hub = api.NewHub(cfg.API.AllowedOrigins, appLog)
			a.betting.AddSink(hub)
			go hub.Run(ctx)
		}

		checker := health.NewChecker(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Storage:     a.repos,
			Snapshots:   a.predictions,
		})

		if trainOnStart || a.store.Current().Version() == 0 {
			result, err := a.training.Retrain(ctx, false)
			if err != nil && !errors.Is(err, models.ErrTrainingInProgress) {
				appLog.WithError(err).Error("Startup training failed, serving without a fresh snapshot")
			} else if result != nil {
				appLog.WithFields(logrus.Fields{
					"version": result.Version,
					"applied": result.Report.Applied,
				}).Info("Startup training completed")
			}
		}

		if cfg.Scheduler.Enabled {
			var scanner scheduler.Scanner
			if cfg.OddsAPI.Enabled {
				scanner = a.betting
			}
			sched := scheduler.NewScheduler(a.training, scanner, cfg.JobTimeout(), appLog)
			if err := sched.ScheduleTraining(cfg.Scheduler.TrainingSchedule); err != nil {
				return err
			}
			if scanner != nil && cfg.Scheduler.ValueBetIntervalSeconds > 0 {
				if err := sched.ScheduleValueBetScan(cfg.Scheduler.ValueBetIntervalSeconds); err != nil {
					return err
				}
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		metricsPath := cfg.Metrics.Path
		if !cfg.Metrics.Enabled {
			metricsPath = ""
		}
		server := api.NewServer(api.Config{
			Port:           cfg.API.Port,
			ReadTimeout:    time.Duration(cfg.API.ReadTimeoutSeconds) * time.Second,
			WriteTimeout:   time.Duration(cfg.API.WriteTimeoutSeconds) * time.Second,
			AllowedOrigins: cfg.API.AllowedOrigins,
			MetricsPath:    metricsPath,
		}, a.predictions, a.training, a.betting, checker, hub, appLog)

		checker.SetReady(true)
		return server.ListenAndServe(ctx)
	},
}
