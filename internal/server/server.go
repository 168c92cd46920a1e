// Package server exposes the project document and asset endpoints consumed
// by the editing client and the CLI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vantage/internal/config"
	"vantage/internal/logging"
)

// Server hosts the document and asset API over the data directory.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool

	listener net.Listener
	server   *http.Server
}

// New builds a server for the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server requires a configuration")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("server requires a bind address")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "vantaged.lock")
	srv := &Server{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/project", srv.handleProject)
	mux.HandleFunc("/api/save-config", srv.handleSaveConfig)
	mux.HandleFunc("/api/upload-scene", srv.handleUploadScene)
	mux.HandleFunc("/api/upload-hotspot-image", srv.handleUploadHotspotImage)
	mux.HandleFunc("/api/delete-file", srv.handleDeleteFile)
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.Handle("/assets/", http.FileServer(http.Dir(cfg.Paths.DataDir)))

	srv.server = &http.Server{
		Addr:              bind,
		Handler:           srv.withRequestLog(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Start acquires the single-instance lock and begins serving. Shutdown is
// tied to ctx cancellation.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vantaged instance is already running")
	}

	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.running.Store(true)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath))
	return nil
}

// Stop shuts the server down and releases the instance lock.
func (s *Server) Stop() {
	if !s.running.Load() {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	s.running.Store(false)
	s.logger.Info("api server stopped")
}

// Addr returns the bound listen address, useful when binding to port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		correlationID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Debug("request handled",
			logging.String(logging.FieldCorrelationID, correlationID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", recorder.status),
			logging.Duration("duration", time.Since(start)))
	})
}
