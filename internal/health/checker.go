// Package health provides liveness and readiness checks for the API server.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// StoragePinger defines the interface for checking snapshot storage connectivity.
type StoragePinger interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotVersioner reports the version of the published rating snapshot.
type SnapshotVersioner interface {
	SnapshotVersion() uint64
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Snapshot uint64            `json:"snapshot_version"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health checker.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Storage     StoragePinger
	Snapshots   SnapshotVersioner
}

// Checker serves the health endpoints. The service is ready once it has been
// marked ready, a rating snapshot is published and storage answers.
type Checker struct {
	serviceName string
	version     string
	commit      string
	storage     StoragePinger
	snapshots   SnapshotVersioner
	mu          sync.RWMutex
	ready       bool
}

// NewChecker creates a new health checker.
func NewChecker(cfg Config) *Checker {
	return &Checker{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		commit:      cfg.Commit,
		storage:     cfg.Storage,
		snapshots:   cfg.Snapshots,
	}
}

// SetReady marks the service as ready to accept traffic.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// IsReady returns whether the service was marked ready.
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Check runs every readiness check and reports whether all passed.
func (c *Checker) Check(ctx context.Context) (ReadyResponse, bool) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !c.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	var version uint64
	if c.snapshots != nil {
		version = c.snapshots.SnapshotVersion()
		if version == 0 {
			allHealthy = false
			checks["snapshot"] = "no snapshot published"
		} else {
			checks["snapshot"] = "ok"
		}
	}

	if c.storage != nil {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		if err := c.storage.HealthCheck(ctx); err != nil {
			allHealthy = false
			checks["storage"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["storage"] = "ok"
		}
	}

	response := ReadyResponse{
		Status:   "ok",
		Service:  c.serviceName,
		Checks:   checks,
		Snapshot: version,
		Duration: time.Since(start).String(),
	}
	if !allHealthy {
		response.Status = "not_ready"
	}
	return response, allHealthy
}

// HandleHealth handles the /health endpoint - basic liveness check.
func (c *Checker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   c.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
		Commit:    c.commit,
	})
}

// HandleLive handles the /live endpoint - kubernetes liveness probe.
func (c *Checker) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: c.serviceName,
	})
}

// HandleReady handles the /ready endpoint.
func (c *Checker) HandleReady(w http.ResponseWriter, r *http.Request) {
	response, ok := c.Check(r.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
