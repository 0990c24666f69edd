package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/safefs/internal/logger"
)

// DefaultPort is the port the metrics server listens on when none is set.
const DefaultPort = 9090

// Server exposes the registry over HTTP.
//
// Endpoints:
//   - GET /metrics: Prometheus exposition format
//   - GET /health: liveness probe
type Server struct {
	server       *http.Server
	shutdownOnce sync.Once
}

// NewServer creates a metrics server for reg on addr (":9090" style). The
// server is created in a stopped state. Call Start to begin serving.
func NewServer(addr string, reg *prometheus.Registry) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(reg),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       30 * time.Second,
		},
	}
}

// NewRouter returns the handler tree served by Server.
func NewRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorLog:          promErrorLog{},
	})
	r.Method(http.MethodGet, "/metrics", handler)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server failed to listen: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// The parent context is already cancelled; give shutdown its own.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop shuts the server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
			logger.Error("metrics server shutdown error", logger.Err(err))
			return
		}
		logger.Debug("metrics server stopped")
	})
	return shutdownErr
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debug("metrics request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			logger.Path(r.URL.Path),
			"status", ww.Status(),
			logger.DurationMs(logger.Duration(start)),
		)
	})
}

// promErrorLog routes promhttp errors to the logger.
type promErrorLog struct{}

func (promErrorLog) Println(v ...any) {
	logger.Warn("metrics exposition error", "detail", fmt.Sprint(v...))
}
