package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/internal/interfaces/http/handlers"
	"github.com/turtacn/chemenv/internal/interfaces/http/middleware"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
)

// RouterConfig aggregates the handlers and optional middleware of the route
// tree. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	PatternHandler     *handlers.PatternHandler
	EnvironmentHandler *handlers.EnvironmentHandler
	HealthHandler      *handlers.HealthHandler

	CORS        *middleware.CORSConfig
	RateLimiter middleware.RateLimiter

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the route tree. Request ID, access log and metrics wrap
// panic recovery, so a recovered panic is still logged and counted as a 500.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(middleware.Recovery(logger))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, middleware.DefaultRateLimitConfig()))
	}

	r.NotFound(envelopeError(http.StatusNotFound, errors.ErrCodeNotFound, "route not found"))
	r.MethodNotAllowed(envelopeError(http.StatusMethodNotAllowed, errors.ErrCodeBadRequest, "method not allowed"))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerPatternRoutes(api, cfg.PatternHandler)
		registerEnvironmentRoutes(api, cfg.EnvironmentHandler)
	})
	return r
}

// registerPatternRoutes mounts the stateless endpoints under /patterns.
func registerPatternRoutes(r chi.Router, h *handlers.PatternHandler) {
	if h == nil {
		return
	}
	r.Route("/patterns", func(pr chi.Router) {
		pr.Post("/analyze", h.Analyze)
		pr.Post("/select", h.Select)
		pr.Post("/components", h.Components)
		pr.Post("/render", h.Render)
		pr.Post("/batch", h.Batch)
	})
}

// registerEnvironmentRoutes mounts stored environments under /environments.
func registerEnvironmentRoutes(r chi.Router, h *handlers.EnvironmentHandler) {
	if h == nil {
		return
	}
	r.Route("/environments", func(er chi.Router) {
		er.Get("/", h.List)
		er.Post("/", h.Create)
		er.Get("/search", h.Search)

		er.Route("/{"+handlers.ParamEnvironmentID+"}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
			item.Post("/atoms", h.AddAtom)
			item.Delete("/atoms/{"+handlers.ParamPosition+"}", h.RemoveAtom)
			item.Post("/decorators", h.AddDecorator)
			item.Get("/revisions", h.Revisions)
			item.Get("/revisions/{"+handlers.ParamVersion+"}", h.Revision)
		})
	})
}

func envelopeError(status int, code errors.ErrorCode, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := common.NewErrorResponse(string(code), message, r.Method+" "+r.URL.Path)
		resp.RequestID = logging.RequestIDFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

//Personal.AI order the ending
