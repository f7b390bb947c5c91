package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// EmbedderSetup bundles the resources embedder-backed integration tests
// need.
type EmbedderSetup struct {
	Embedder ai.Embedder
	Genkit   *genkit.Genkit
	Logger   *slog.Logger
}

// SetupEmbedder creates a Gemini embedder for integration tests. The test
// is skipped when GEMINI_API_KEY is not set.
func SetupEmbedder(t *testing.T) *EmbedderSetup {
	t.Helper()

	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set - skipping test requiring embedder")
	}

	g := genkit.Init(context.Background(),
		genkit.WithPlugins(&googlegenai.GoogleAI{}))
	embedder := googlegenai.GoogleAIEmbedder(g, "gemini-embedding-001")

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))

	return &EmbedderSetup{
		Embedder: embedder,
		Genkit:   g,
		Logger:   logger,
	}
}
