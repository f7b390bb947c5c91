package engine

import (
	"strings"
	"testing"

	"github.com/policyq/policyq/internal/retrieval"
)

func TestBuildSystemMessage(t *testing.T) {
	t.Parallel()

	t.Run("empty result yields bare instructions", func(t *testing.T) {
		t.Parallel()

		got := buildSystemMessage(retrieval.Result{})
		if got != systemPrompt {
			t.Error("buildSystemMessage() with empty result should equal the fixed instructions")
		}
		if strings.Contains(got, "Use the following information") {
			t.Error("empty result must not produce a context section")
		}
	})

	t.Run("chunks appended verbatim in order", func(t *testing.T) {
		t.Parallel()

		result := retrieval.Result{Chunks: []retrieval.ScoredChunk{
			{Chunk: retrieval.Chunk{Text: "Vacation accrues at 1.25 days per month."}, Similarity: 0.9},
			{Chunk: retrieval.Chunk{Text: "Unused days carry over up to 10 days."}, Similarity: 0.7},
		}}

		got := buildSystemMessage(result)
		if !strings.HasPrefix(got, systemPrompt) {
			t.Error("instructions must come first")
		}
		first := strings.Index(got, "Vacation accrues")
		second := strings.Index(got, "Unused days")
		if first == -1 || second == -1 {
			t.Fatal("chunk text missing from system message")
		}
		if first > second {
			t.Error("chunks out of order in system message")
		}
	})
}
