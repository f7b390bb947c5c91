package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/policyq/policyq/internal/log"
	"github.com/policyq/policyq/internal/session"
)

// SessionMemory is what the session endpoints need from session storage.
type SessionMemory interface {
	Sessions(ctx context.Context) []session.Summary
	History(ctx context.Context, sessionID uuid.UUID) []session.Turn
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// SessionHandler handles session management endpoints.
type SessionHandler struct {
	memory SessionMemory
	logger log.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(memory SessionMemory, logger log.Logger) *SessionHandler {
	return &SessionHandler{memory: memory, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("GET /api/sessions/{id}", h.history)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.delete)
}

// SessionSummary is one entry in the session list response.
type SessionSummary struct {
	ID           string    `json:"id"`
	Preview      string    `json:"preview"`
	LastActivity time.Time `json:"last_activity"`
	Origin       string    `json:"origin"`
}

// list returns all known sessions, most recently active first.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	if h.memory == nil {
		h.logger.Error("session memory is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	summaries := h.memory.Sessions(r.Context())
	out := make([]SessionSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, SessionSummary{
			ID:           s.ID.String(),
			Preview:      s.Preview,
			LastActivity: s.LastActivity,
			Origin:       string(s.Origin),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": out,
		"total":    len(out),
	})
}

// CreateSessionResponse is the response body for session creation.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// create mints a new session identifier. The session itself materializes
// in storage on its first question.
func (h *SessionHandler) create(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: uuid.NewString(),
	})
}

// history returns the full turn sequence of one session, oldest first.
// An unknown session yields an empty list, matching the store contract.
func (h *SessionHandler) history(w http.ResponseWriter, r *http.Request) {
	if h.memory == nil {
		h.logger.Error("session memory is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id", "session id must be a UUID")
		return
	}

	turns := h.memory.History(r.Context(), id)
	if turns == nil {
		turns = []session.Turn{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id.String(),
		"turns":      turns,
		"total":      len(turns),
	})
}

// delete removes a session and all its turns. Deleting an unknown
// session succeeds, matching the idempotent store semantics.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if h.memory == nil {
		h.logger.Error("session memory is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id", "session id must be a UUID")
		return
	}

	if err := h.memory.Delete(r.Context(), id); err != nil {
		h.logger.Error("deleting session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
