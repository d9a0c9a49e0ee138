// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/rostermind/rostermind/pkg/api/response"
	"github.com/rostermind/rostermind/pkg/memory"
	"github.com/rostermind/rostermind/pkg/persist"
	"github.com/rostermind/rostermind/pkg/version"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	registry *memory.Registry
	store    persist.Store
	started  time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(registry *memory.Registry, store persist.Store) *HealthHandler {
	return &HealthHandler{
		registry: registry,
		store:    store,
		started:  time.Now(),
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe). Readiness requires
// the snapshot store to answer a listing.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if _, err := h.store.ListTeams(r.Context()); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"ready": false,
				"error": err.Error(),
			})
			return
		}
	}
	response.JSON(w, http.StatusOK, map[string]bool{
		"ready": true,
	})
}

// Status handles the /status endpoint (detailed status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	teams := h.registry.Teams()

	totalItems := 0
	h.registry.Range(func(_ string, eng *memory.Engine) {
		totalItems += eng.Stats().TotalItems
	})

	response.JSON(w, http.StatusOK, map[string]any{
		"version":        version.Version,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"teams":          teams,
		"team_count":     len(teams),
		"total_items":    totalItems,
	})
}
