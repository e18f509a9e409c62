// Package api serves read-only queries against the latest pool snapshot.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/cache"
	"github.com/darshan-rambhia/poolwatch/internal/model"
)

// PingPath answers liveness probes without reading the snapshot.
const PingPath = "/_ping"

// Server is the HTTP server for snapshot queries.
type Server struct {
	cache  *cache.Cache
	server *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(addr string, c *cache.Cache) *Server {
	srv := &Server{cache: c}

	// The handler is not a ServeMux: paths must reach it uncleaned so that
	// repeated slashes are ignored instead of redirected.
	srv.server = &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

// Handler returns the full middleware stack.
func (s *Server) Handler() http.Handler {
	return SecurityHeadersMiddleware(RecoveryMiddleware(LoggingMiddleware(http.HandlerFunc(s.handleQuery))))
}

// Run starts the HTTP server. It blocks until the context is cancelled,
// then waits for in-flight requests to finish.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("HTTP server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleQuery walks the snapshot along the request path and writes the
// value found there. Before the first poll the snapshot is empty.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path == PingPath {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	snap, ok := s.cache.Latest()
	if !ok {
		snap = model.NewSnapshot()
	}

	v, ok := snap.Lookup(strings.Split(r.URL.Path, "/"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, r, v)
}

// writeJSON marshals v to JSON into a buffer first, then writes it to the
// response. This ensures marshalling errors can be returned as a proper 500.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding JSON response", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		slog.Debug("writing JSON response", "path", r.URL.Path, "error", err)
	}
}
