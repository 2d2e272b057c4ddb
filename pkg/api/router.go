package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/internal/telemetry"
	"github.com/marmos91/ordo/pkg/api/auth"
	"github.com/marmos91/ordo/pkg/api/handlers"
	apimiddleware "github.com/marmos91/ordo/pkg/api/middleware"
	"github.com/marmos91/ordo/pkg/config"
	"github.com/marmos91/ordo/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics (404 while metrics are disabled)
//   - GET /api/v1/instance - Instance status
//   - POST /api/v1/instance/initialize - Initialize (token required)
//   - POST /api/v1/instance/remove - Remove (token required)
//   - GET /api/v1/oracle/launch-spec - Oracle launch spec
func NewRouter(cfg *config.Config, inst handlers.Instance, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(traceContext)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(inst)
	instanceHandler := handlers.NewInstanceHandler(inst)
	oracleHandler := handlers.NewOracleHandler(cfg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/instance", instanceHandler.Status)
		r.Get("/oracle/launch-spec", oracleHandler.LaunchSpec)

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.JWTAuth(jwtService))
			r.Post("/instance/initialize", instanceHandler.Initialize)
			r.Post("/instance/remove", instanceHandler.Remove)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// traceContext continues the caller's trace when the request carries a
// traceparent header.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(telemetry.ExtractHTTP(r.Context(), r.Header)))
	})
}

// requestLogger logs requests using the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(time.Since(start)),
		)
	})
}
