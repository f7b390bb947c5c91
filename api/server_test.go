package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyq/policyq/internal/engine"
	"github.com/policyq/policyq/internal/log"
)

func newTestServer() *Server {
	return NewServer(
		&fakeAsker{answer: engine.Answer{Text: "answer"}},
		&fakeSessionMemory{},
		nil,
		log.NewNop())
}

func TestServer_RoutesRegistered(t *testing.T) {
	handler := newTestServer().Handler()

	tests := []struct {
		method string
		path   string
		// A registered route answers with anything other than 404/405,
		// even when the handler rejects the particular request.
		wantRouted bool
	}{
		{http.MethodGet, "/health", true},
		{http.MethodGet, "/ready", true},
		{http.MethodGet, "/api/sessions", true},
		{http.MethodPost, "/api/sessions", true},
		{http.MethodGet, "/api/sessions/some-id", true},
		{http.MethodPost, "/api/query", true},
		{http.MethodGet, "/api/query", false},
		{http.MethodGet, "/nonexistent", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		routed := w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed
		assert.Equal(t, tt.wantRouted, routed, "%s %s returned %d", tt.method, tt.path, w.Code)
	}
}

func TestServer_MiddlewareChain(t *testing.T) {
	handler := newTestServer().Handler()

	t.Run("requests pass through logging middleware", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})
}

func TestServer_Run_GracefulShutdown(t *testing.T) {
	srv := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())

	// Find an available port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	_ = listener.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, addr)
	}()

	// Poll for server readiness instead of a fixed sleep.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_DefaultAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:3400", DefaultAddr)
}

func TestWriteJSON_Integration(t *testing.T) {
	w := httptest.NewRecorder()

	data := map[string]any{
		"sessions": []string{"a", "b"},
		"total":    2,
	}
	writeJSON(w, http.StatusOK, data)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, float64(2), result["total"]) // JSON numbers decode as float64
}
