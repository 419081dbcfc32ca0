// Package server provides the admin HTTP server: metrics, health and manual
// reload.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mineguard/warden/pkg/config"
)

// Reloader triggers a rule reload; the manager implements it.
type Reloader interface {
	Reload() error
}

// Server is the admin HTTP server.
type Server struct {
	config     *config.AdminConfig
	reloader   Reloader
	registry   *prometheus.Registry
	logger     *slog.Logger
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.Mutex
	isRunning    bool
}

// New creates an admin server. registry may be nil to serve the default
// Prometheus registry.
func New(cfg *config.AdminConfig, reloader Reloader, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   cfg,
		reloader: reloader,
		registry: registry,
		logger:   logger,
	}
}

// Start starts the server and blocks until ctx is cancelled or serving fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("admin server started", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errChan:
		return fmt.Errorf("admin server failed: %w", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
		s.logger.Info("admin server stopped")
	})
	return err
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/-/reload", s.handleReload)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.reloader.Reload(); err != nil {
		s.logger.Error("manual reload failed", "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "reloaded"})
}
