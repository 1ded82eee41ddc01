package handlers

import (
	"net/http"

	"github.com/benvon/fitness-buddy/internal/middleware"
	"github.com/benvon/fitness-buddy/internal/session"
	"github.com/benvon/fitness-buddy/internal/storage"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// RouterConfig holds what the local API router needs
type RouterConfig struct {
	Controller     *session.Controller
	Storage        storage.Gateway
	Logger         *zap.Logger
	AllowedOrigins []string
	Metrics        bool
	Tracing        bool
	ServiceName    string
}

// NewRouter assembles the local API
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.NotFoundHandler = middleware.NotFound(logger)
	r.MethodNotAllowedHandler = middleware.MethodNotAllowed(logger)

	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "fitbuddy"
		}
		r.Use(otelmux.Middleware(name))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.JSONBody(middleware.DefaultMaxRequestSize, logger))

	health := NewHealthChecker(cfg.Storage)
	r.HandleFunc("/healthz", health.HealthCheck).Methods("GET")
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = r.NotFoundHandler
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler
	NewSessionHandler(cfg.Controller, logger).RegisterRoutes(api)

	return middleware.CORS(cfg.AllowedOrigins)(r)
}
