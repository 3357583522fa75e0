package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/logging"
)

// DefaultPath is where metrics are served
const DefaultPath = "/metrics"

// Server serves a Registry over HTTP
type Server struct {
	addr     string
	registry *Registry
	listener net.Listener
	server   *http.Server
}

// NewServer creates a metrics server for addr (host:port)
func NewServer(addr string, registry *Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle(DefaultPath, promhttp.HandlerFor(
		registry.PrometheusRegistry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		addr:     addr,
		registry: registry,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Listen binds the server address
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", s.addr, err)
	}
	s.listener = ln
	logging.Info("Metrics server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", DefaultPath),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve blocks until ctx is cancelled. Listen is called if it has not been.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
