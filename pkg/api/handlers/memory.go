package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rostermind/rostermind/pkg/api/middleware"
	"github.com/rostermind/rostermind/pkg/api/response"
	"github.com/rostermind/rostermind/pkg/memory"
)

// MemoryHandler handles memory engine API endpoints. Every route is scoped
// to a team; the handler resolves the team's engine through the registry.
type MemoryHandler struct {
	registry *memory.Registry
	logger   memoryLogger
}

type memoryLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(registry *memory.Registry, log memoryLogger) *MemoryHandler {
	return &MemoryHandler{
		registry: registry,
		logger:   log,
	}
}

func getRequestID(ctx context.Context) string {
	return middleware.GetRequestID(ctx)
}

// --- Request/Response types ---

// defaultImportance is applied when a store request omits importance, so
// unweighted items sit mid-range instead of becoming the first eviction
// candidates.
const defaultImportance = 0.5

type storeRequest struct {
	Content    map[string]any `json:"content"`
	Tier       string         `json:"tier"`
	UserID     string         `json:"user_id,omitempty"`
	ChatID     string         `json:"chat_id,omitempty"`
	Importance *float64       `json:"importance,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type storeResponse struct {
	ID   string `json:"id"`
	Tier string `json:"tier"`
}

type queryRequest struct {
	Fields        map[string]any `json:"fields,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Tiers         []string       `json:"tiers,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	ChatID        string         `json:"chat_id,omitempty"`
	Limit         int            `json:"limit,omitempty"`
	MinImportance float64        `json:"min_importance,omitempty"`
}

type itemsResponse struct {
	Items []*memory.Item `json:"items"`
	Count int            `json:"count"`
}

type preferenceRequest struct {
	UserID     string  `json:"user_id"`
	Type       string  `json:"type"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

type patternRequest struct {
	Type     string   `json:"type"`
	Triggers []string `json:"triggers"`
	Response string   `json:"response"`
	Success  bool     `json:"success"`
}

type patternResponse struct {
	ID      string `json:"id,omitempty"`
	Learned bool   `json:"learned"`
}

type matchRequest struct {
	Context map[string]any `json:"context"`
}

type patternsResponse struct {
	Patterns []*memory.Pattern `json:"patterns"`
	Count    int               `json:"count"`
}

// engine resolves the team's engine or writes an error response and
// returns nil.
func (h *MemoryHandler) engine(w http.ResponseWriter, r *http.Request) *memory.Engine {
	teamID := chi.URLParam(r, "teamID")
	eng, err := h.registry.Get(teamID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Team ID is required", getRequestID(r.Context()))
		return nil
	}
	return eng
}

// StoreItem handles POST /api/v1/teams/{teamID}/memory
func (h *MemoryHandler) StoreItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if len(req.Content) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Content is required", getRequestID(ctx))
		return
	}

	tier, err := memory.ParseTier(req.Tier)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Unknown tier: "+req.Tier, getRequestID(ctx))
		return
	}

	importance := defaultImportance
	if req.Importance != nil {
		importance = *req.Importance
	}

	id, err := eng.Store(req.Content, tier, memory.StoreOptions{
		UserID:     req.UserID,
		ChatID:     req.ChatID,
		Importance: importance,
		Tags:       req.Tags,
		Metadata:   req.Metadata,
	})
	if err != nil {
		if errors.Is(err, memory.ErrInvalidContent) {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(ctx))
			return
		}
		h.logger.Error("Failed to store memory item", "team", eng.Team(), "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to store memory item", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusCreated, storeResponse{ID: id, Tier: string(tier)})
}

// QueryItems handles POST /api/v1/teams/{teamID}/memory/query
func (h *MemoryHandler) QueryItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	tiers := make([]memory.Tier, 0, len(req.Tiers))
	for _, name := range req.Tiers {
		tier, err := memory.ParseTier(name)
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Unknown tier: "+name, getRequestID(ctx))
			return
		}
		tiers = append(tiers, tier)
	}

	items := eng.Retrieve(
		memory.Query{Fields: req.Fields, Tags: req.Tags},
		memory.RetrieveOptions{
			Tiers:         tiers,
			UserID:        req.UserID,
			ChatID:        req.ChatID,
			Limit:         req.Limit,
			MinImportance: req.MinImportance,
		},
	)

	response.JSON(w, http.StatusOK, itemsResponse{Items: items, Count: len(items)})
}

// ConversationContext handles GET /api/v1/teams/{teamID}/memory/context
func (h *MemoryHandler) ConversationContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "user_id query parameter is required", getRequestID(ctx))
		return
	}
	chatID := r.URL.Query().Get("chat_id")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	items := eng.ConversationContext(userID, chatID, limit)
	response.JSON(w, http.StatusOK, itemsResponse{Items: items, Count: len(items)})
}

// LearnPreference handles POST /api/v1/teams/{teamID}/memory/preferences
func (h *MemoryHandler) LearnPreference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if req.UserID == "" || req.Type == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "user_id and type are required", getRequestID(ctx))
		return
	}

	eng.LearnPreference(req.UserID, req.Type, req.Value, req.Confidence)
	response.JSON(w, http.StatusNoContent, nil)
}

// ListPreferences handles GET /api/v1/teams/{teamID}/memory/preferences
func (h *MemoryHandler) ListPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "user_id query parameter is required", getRequestID(ctx))
		return
	}

	prefs := eng.Preferences(userID)
	response.JSON(w, http.StatusOK, map[string]any{
		"preferences": prefs,
		"count":       len(prefs),
	})
}

// LearnPattern handles POST /api/v1/teams/{teamID}/memory/patterns
func (h *MemoryHandler) LearnPattern(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	var req patternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if req.Type == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "type is required", getRequestID(ctx))
		return
	}

	id, err := eng.LearnPattern(req.Type, req.Triggers, req.Response, req.Success)
	if err != nil {
		h.logger.Error("Failed to learn pattern", "team", eng.Team(), "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to learn pattern", getRequestID(ctx))
		return
	}
	if id == "" {
		// Pattern learning is disabled for this team; nothing was stored.
		response.JSON(w, http.StatusAccepted, patternResponse{Learned: false})
		return
	}

	response.JSON(w, http.StatusOK, patternResponse{ID: id, Learned: true})
}

// MatchPatterns handles POST /api/v1/teams/{teamID}/memory/patterns/match
func (h *MemoryHandler) MatchPatterns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	patterns := eng.RelevantPatterns(req.Context)
	response.JSON(w, http.StatusOK, patternsResponse{Patterns: patterns, Count: len(patterns)})
}

// GetStats handles GET /api/v1/teams/{teamID}/memory/stats
func (h *MemoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	response.JSON(w, http.StatusOK, eng.Stats())
}

// Cleanup handles POST /api/v1/teams/{teamID}/memory/cleanup
func (h *MemoryHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	report := eng.Cleanup()
	response.JSON(w, http.StatusOK, report)
}

// ExportSnapshot handles GET /api/v1/teams/{teamID}/memory/export
func (h *MemoryHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	response.JSON(w, http.StatusOK, eng.Export())
}

// ImportSnapshot handles POST /api/v1/teams/{teamID}/memory/import
func (h *MemoryHandler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng := h.engine(w, r)
	if eng == nil {
		return
	}

	var snap memory.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	if err := eng.Import(&snap); err != nil {
		if errors.Is(err, memory.ErrUnknownTier) || errors.Is(err, memory.ErrNilSnapshot) {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(ctx))
			return
		}
		h.logger.Error("Failed to import snapshot", "team", eng.Team(), "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to import snapshot", getRequestID(ctx))
		return
	}

	h.logger.Info("Snapshot imported", "team", eng.Team(), "snapshot_id", snap.SnapshotID)
	response.JSON(w, http.StatusOK, map[string]string{"snapshot_id": snap.SnapshotID})
}
