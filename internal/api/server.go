// Package api exposes ratings, predictions and value bets over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/health"
	"github.com/martofrog/tennis-predictions/internal/metrics"
	"github.com/martofrog/tennis-predictions/internal/service"
)

// Config holds the HTTP server settings
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	// MetricsPath mounts the prometheus handler; empty disables it.
	MetricsPath string
}

// Server is the HTTP API
type Server struct {
	cfg         Config
	predictions *service.PredictionService
	training    *service.TrainingService
	betting     *service.BettingService
	health      *health.Checker
	hub         *Hub
	logger      *logrus.Logger
	router      chi.Router
	httpServer  *http.Server
}

// NewServer builds the router. hub may be nil to disable /api/v2/stream.
func NewServer(cfg Config, predictions *service.PredictionService, training *service.TrainingService,
	betting *service.BettingService, checker *health.Checker, hub *Hub, logger *logrus.Logger) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		cfg:         cfg,
		predictions: predictions,
		training:    training,
		betting:     betting,
		health:      checker,
		hub:         hub,
		logger:      logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(recordMetrics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health.HandleHealth)
	r.Get("/live", s.health.HandleLive)
	r.Get("/ready", s.health.HandleReady)
	if s.cfg.MetricsPath != "" {
		r.Method(http.MethodGet, s.cfg.MetricsPath, metrics.Handler())
	}

	r.Route("/api/v2", func(r chi.Router) {
		r.Get("/ratings", s.handleRatings)
		r.Get("/ratings/{player}", s.handlePlayer)
		r.Get("/predict", s.handlePredict)
		r.Get("/value-bets", s.handleValueBets)

		r.Get("/cache/status", s.handleCacheStatus)
		r.Delete("/cache/clear", s.handleCacheClear)

		r.Get("/training/status", s.handleTrainingStatus)
		r.Post("/training/run", s.handleTrainingRun)
		r.Get("/data-status", s.handleDataStatus)

		if s.hub != nil {
			r.Get("/stream", s.hub.ServeWS)
		}
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("API server listening")
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down api server: %w", err)
	}
	return nil
}
