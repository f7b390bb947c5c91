package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyq/policyq/internal/log"
	"github.com/policyq/policyq/internal/session"
)

// fakeSessionMemory serves canned summaries and turns, and records deletes.
type fakeSessionMemory struct {
	summaries []session.Summary
	turns     map[uuid.UUID][]session.Turn
	deleted   []uuid.UUID
}

func (f *fakeSessionMemory) Sessions(_ context.Context) []session.Summary {
	return f.summaries
}

func (f *fakeSessionMemory) History(_ context.Context, sessionID uuid.UUID) []session.Turn {
	return f.turns[sessionID]
}

func (f *fakeSessionMemory) Delete(_ context.Context, sessionID uuid.UUID) error {
	f.deleted = append(f.deleted, sessionID)
	return nil
}

func newSessionMux(memory SessionMemory) *http.ServeMux {
	mux := http.NewServeMux()
	NewSessionHandler(memory, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSessions_List(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	memory := &fakeSessionMemory{summaries: []session.Summary{
		{ID: id, Preview: "What is the vacation policy?...", LastActivity: time.Now(), Origin: session.OriginPrimary},
	}}

	w := doRequest(newSessionMux(memory), http.MethodGet, "/api/sessions")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sessions []SessionSummary `json:"sessions"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	require.Len(t, body.Sessions, 1)
	assert.Equal(t, id.String(), body.Sessions[0].ID)
	assert.Equal(t, "primary", body.Sessions[0].Origin)
}

func TestSessions_ListEmpty(t *testing.T) {
	t.Parallel()

	w := doRequest(newSessionMux(&fakeSessionMemory{}), http.MethodGet, "/api/sessions")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sessions []SessionSummary `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotNil(t, body.Sessions, "sessions should encode as [] rather than null")
}

func TestSessions_Create(t *testing.T) {
	t.Parallel()

	w := doRequest(newSessionMux(&fakeSessionMemory{}), http.MethodPost, "/api/sessions")

	require.Equal(t, http.StatusCreated, w.Code)

	var body CreateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	_, err := uuid.Parse(body.SessionID)
	assert.NoError(t, err, "session_id %q should be a UUID", body.SessionID)
}

func TestSessions_History(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	memory := &fakeSessionMemory{turns: map[uuid.UUID][]session.Turn{
		id: {
			session.NewUserTurn("What is the vacation policy?"),
			session.NewAssistantTurn("You accrue 15 days per year.", nil),
		},
	}}

	w := doRequest(newSessionMux(memory), http.MethodGet, "/api/sessions/"+id.String())

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SessionID string         `json:"session_id"`
		Turns     []session.Turn `json:"turns"`
		Total     int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, id.String(), body.SessionID)
	require.Equal(t, 2, body.Total)
	assert.Equal(t, session.RoleUser, body.Turns[0].Role)
	assert.Equal(t, session.RoleAssistant, body.Turns[1].Role)
}

func TestSessions_HistoryUnknownSession(t *testing.T) {
	t.Parallel()

	w := doRequest(newSessionMux(&fakeSessionMemory{}), http.MethodGet, "/api/sessions/"+uuid.NewString())

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Turns []session.Turn `json:"turns"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotNil(t, body.Turns, "turns should encode as [] rather than null")
	assert.Zero(t, body.Total)
}

func TestSessions_HistoryBadID(t *testing.T) {
	t.Parallel()

	w := doRequest(newSessionMux(&fakeSessionMemory{}), http.MethodGet, "/api/sessions/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessions_Delete(t *testing.T) {
	t.Parallel()

	memory := &fakeSessionMemory{}
	id := uuid.New()

	w := doRequest(newSessionMux(memory), http.MethodDelete, "/api/sessions/"+id.String())

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, memory.deleted, 1)
	assert.Equal(t, id, memory.deleted[0])
}

func TestSessions_DeleteBadID(t *testing.T) {
	t.Parallel()

	w := doRequest(newSessionMux(&fakeSessionMemory{}), http.MethodDelete, "/api/sessions/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
