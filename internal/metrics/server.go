package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the metrics HTTP server
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer serves reg on /metrics and a liveness probe on /health.
func NewServer(addr string, reg *prometheus.Registry, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Stopping metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
