package retrieval

import "errors"

// Sentinel errors for the retrieval pipeline. Callers classify failures
// with errors.Is; the orchestrator recovers both into an empty result.
var (
	// ErrEmbeddingUnavailable means the query could not be embedded.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRetrievalUnavailable means the vector index could not be searched.
	ErrRetrievalUnavailable = errors.New("retrieval service unavailable")
)
