package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/policyq/policyq/internal/engine"
	"github.com/policyq/policyq/internal/log"
)

// MaxQuestionLength bounds the accepted question size in bytes.
const MaxQuestionLength = 4000

// Asker is what the query endpoint needs from the engine.
type Asker interface {
	Ask(ctx context.Context, sessionID uuid.UUID, question string) (engine.Answer, error)
}

// QueryHandler handles the question answering endpoint.
type QueryHandler struct {
	asker  Asker
	logger log.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(asker Asker, logger log.Logger) *QueryHandler {
	return &QueryHandler{asker: asker, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.query)
}

// QueryRequest is the request body for POST /api/query. An absent
// session_id starts a new conversation.
type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// query answers one question. The response always carries usable answer
// text: pipeline degradation surfaces through the degraded flag, not as
// an HTTP error.
func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	if h.asker == nil {
		h.logger.Error("query engine is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}
	if len(req.Question) > MaxQuestionLength {
		writeError(w, http.StatusBadRequest, "question_too_long", "question exceeds 4000 bytes")
		return
	}

	sessionID := uuid.New()
	if req.SessionID != "" {
		var err error
		sessionID, err = uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "session id must be a UUID")
			return
		}
	}

	answer, err := h.asker.Ask(r.Context(), sessionID, req.Question)
	if err != nil {
		h.logger.Error("answering question", "session_id", sessionID, "error", err)
		writeError(w, http.StatusBadRequest, "invalid_question", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, answer)
}
