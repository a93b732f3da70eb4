// Package api provides the HTTP server that exposes backtest results:
// saved run summaries, Prometheus metrics, and a health check.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"cppi/internal/metrics"
	"cppi/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP API server. A nil summary store serves only metrics and
// the health check.
type Server struct {
	addr      string
	summaries store.SummaryStore
	logger    *slog.Logger
}

// NewServer creates a new Server listening on addr.
func NewServer(addr string, summaries store.SummaryStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:      addr,
		summaries: summaries,
		logger:    logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	if s.summaries != nil {
		mux.HandleFunc("GET /api/v1/summaries", s.handleListSummaries)
		mux.HandleFunc("GET /api/v1/summaries/{id}", s.handleGetSummary)
	}
	return mux
}

// ListenAndServe starts the HTTP listener and blocks until the context is
// cancelled or a fatal error occurs. Cancellation shuts the server down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("api server stopped", "addr", s.addr)
	return nil
}
