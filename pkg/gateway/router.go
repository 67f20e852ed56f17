package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/pkg/augment"
)

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /metrics - Prometheus metrics (when metricsHandler is non-nil)
//   - GET /api/v1/services - Exposed services
//   - GET /api/v1/services/{service}/operations - Installed counterparts
//   - POST /api/v1/services/{service}/operations/{operation} - Invoke a counterpart
//
// /api/v1 requires a bearer token when tokens is non-nil. Invokes are
// recorded in m when it is non-nil.
func NewRouter(cfg Config, clients map[string]*augment.Client[any], tokens *TokenService, metricsHandler http.Handler, m Metrics) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if cfg.WriteTimeout > 0 {
		r.Use(middleware.Timeout(cfg.WriteTimeout))
	}

	h := NewHandler(clients, cfg.RequestTimeout, m)

	r.Get("/health", h.Health)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if tokens != nil {
			r.Use(JWTAuth(tokens))
		}

		r.Get("/services", h.ListServices)
		r.Route("/services/{service}/operations", func(r chi.Router) {
			r.Get("/", h.ListOperations)
			r.Post("/{operation}", h.Invoke)
		})
	})

	return r
}

// requestLogger logs each request with the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("Gateway request started",
			logger.KeyRequestID, requestID,
			"method", r.Method,
			logger.KeyPath, r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logArgs := []any{
			logger.KeyRequestID, requestID,
			"method", r.Method,
			logger.KeyPath, r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		}

		// Probes and scrapes are logged at DEBUG to keep the log readable
		if isQuietPath(r.URL.Path) {
			logger.Debug("Gateway request completed", logArgs...)
		} else {
			logger.Info("Gateway request completed", logArgs...)
		}
	})
}

func isQuietPath(path string) bool {
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/health/")
}
