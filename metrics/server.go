package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weiihann/rpcbench/config"
)

// Server serves the metrics registry over HTTP.
type Server struct {
	server *http.Server
	logger *slog.Logger
	cfg    config.MetricsConfig
}

// NewServer creates a metrics server for m.
func NewServer(cfg config.MetricsConfig, m *Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	return &Server{
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           mux,
			ReadHeaderTimeout: 3 * time.Second,
		},
		logger: logger.With(slog.String("component", "metrics")),
		cfg:    cfg,
	}
}

// Start blocks serving metrics until Shutdown is called. It returns nil
// right away when metrics are disabled.
func (s *Server) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("metrics server disabled")
		return nil
	}

	s.logger.Info("starting metrics server",
		slog.String("addr", s.server.Addr),
		slog.String("path", s.cfg.Path),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}
