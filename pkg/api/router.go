// Package api provides HTTP API server components.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/rostermind/rostermind/config"
	"github.com/rostermind/rostermind/pkg/api/handlers"
	"github.com/rostermind/rostermind/pkg/api/middleware"
	"github.com/rostermind/rostermind/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Memory handles the team-scoped memory endpoints
	Memory *handlers.MemoryHandler

	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	// Register global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	// Add metrics middleware if provided
	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
	}

	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		}))
	}

	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))

	// Register routes
	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if handlers.Memory != nil {
			r.Route("/teams/{teamID}/memory", func(r chi.Router) {
				r.Post("/", handlers.Memory.StoreItem)
				r.Post("/query", handlers.Memory.QueryItems)
				r.Get("/context", handlers.Memory.ConversationContext)
				r.Post("/preferences", handlers.Memory.LearnPreference)
				r.Get("/preferences", handlers.Memory.ListPreferences)
				r.Post("/patterns", handlers.Memory.LearnPattern)
				r.Post("/patterns/match", handlers.Memory.MatchPatterns)
				r.Get("/stats", handlers.Memory.GetStats)
				r.Post("/cleanup", handlers.Memory.Cleanup)
				r.Get("/export", handlers.Memory.ExportSnapshot)
				r.Post("/import", handlers.Memory.ImportSnapshot)
			})
		}
	})

	// Health check routes (not versioned)
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
		r.Get("/status", handlers.Health.Status)
	}
}
