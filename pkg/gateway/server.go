package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/pkg/augment"
)

// shutdownGrace bounds graceful shutdown once Start's context is cancelled.
const shutdownGrace = 5 * time.Second

// Server serves augmented clients over HTTP.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /metrics: Prometheus metrics, when a metrics handler is given
//   - GET /api/v1/services: Exposed services
//   - GET /api/v1/services/{service}/operations: Counterparts of a service
//   - POST /api/v1/services/{service}/operations/{operation}: Invoke
type Server struct {
	server       *http.Server
	handler      http.Handler
	config       Config
	shutdownOnce sync.Once

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a gateway server in a stopped state.
//
// Bearer authentication is enabled when a JWT secret is configured, either
// in cfg or through AWSASYNC_GATEWAY_JWT_SECRET.
func NewServer(cfg Config, clients map[string]*augment.Client[any], metricsHandler http.Handler, opts ...Option) (*Server, error) {
	cfg.ApplyDefaults()

	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	var tokens *TokenService
	if cfg.HasJWTSecret() {
		var err error
		tokens, err = NewTokenService(cfg.GetJWTSecret())
		if err != nil {
			return nil, fmt.Errorf("gateway auth: %w; set via %s env var or config", err, EnvJWTSecret)
		}
	} else {
		logger.Warn("Gateway bearer authentication disabled; set gateway.jwt_secret to enable it")
	}

	handler := NewRouter(cfg, clients, tokens, metricsHandler, o.metrics)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		handler: handler,
		config:  cfg,
	}, nil
}

// Handler returns the router, for mounting or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled or the listener fails.
//
// Returns nil on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Gateway listening", logger.KeyPort, s.Port())

		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Gateway shutdown signal received")
		// The cancelled ctx would abort shutdown immediately
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("gateway failed: %w", err)
	}
}

// Stop gracefully shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("Gateway shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("gateway shutdown error: %w", err)
			logger.Error("Gateway shutdown error", logger.Err(err))
		} else {
			logger.Info("Gateway stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.config.Port
}
