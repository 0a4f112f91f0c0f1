package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CheckFunc reports whether a dependency is usable
type CheckFunc func(ctx context.Context) error

// HealthServer provides HTTP health check endpoints
type HealthServer struct {
	port   int
	checks map[string]CheckFunc
	logger *zap.Logger
	server *http.Server
}

// NewHealthServer creates a new health server. checks may be empty.
func NewHealthServer(port int, checks map[string]CheckFunc, logger *zap.Logger) *HealthServer {
	return &HealthServer{
		port:   port,
		checks: checks,
		logger: logger,
	}
}

// Handler returns the health endpoints
func (hs *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/ready", hs.handleReady)
	return mux
}

// Start starts the health check server
func (hs *HealthServer) Start() error {
	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", hs.port),
		Handler:           hs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs.logger.Info("starting health server", zap.Int("port", hs.port))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hs.logger.Error("health server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the health check server
func (hs *HealthServer) Stop() error {
	if hs.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs.logger.Info("stopping health server")
	return hs.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth handles the /health endpoint
func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(hs.checks))
	healthy := true
	for name, check := range hs.checks {
		if err := check(ctx); err != nil {
			checks[name] = fmt.Sprintf("unhealthy: %v", err)
			healthy = false
			continue
		}
		checks[name] = "healthy"
	}

	if !healthy {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: checks,
		}, hs.logger)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Checks: checks,
	}, hs.logger)
}

// handleReady handles the /ready endpoint
func (hs *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range hs.checks {
		if err := check(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "not ready",
			}, hs.logger)
			return
		}
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ready",
	}, hs.logger)
}
