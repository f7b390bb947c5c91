// Package retrieval embeds user queries and finds the most relevant
// policy document chunks in a pgvector-backed index.
//
// The pipeline is embed, nearest-neighbour search, threshold filter: a
// query is embedded once, the index returns the top-K chunks by cosine
// similarity, and chunks scoring below the relevance threshold are
// dropped. When the filter drops everything the result is empty rather
// than falling back to unfiltered candidates, since an ungrounded answer
// is worse than an explicit no-context state.
package retrieval

// VectorDimension is the embedding width of the policy_chunks schema.
// gemini-embedding-001 outputs 3072 dimensions by default; every embed
// call truncates to this width via OutputDimensionality so query vectors
// match the stored corpus.
const VectorDimension int32 = 768

// Chunk is one stored fragment of a policy document.
type Chunk struct {
	DocumentID string
	Page       int
	Text       string
}

// ScoredChunk is a chunk with its cosine similarity to the query,
// in [0,1].
type ScoredChunk struct {
	Chunk
	Similarity float64
}

// Result holds the retrieved chunks for one query, ordered by descending
// similarity and already filtered by the relevance threshold.
type Result struct {
	Chunks []ScoredChunk
}

// Empty reports whether no chunk cleared the relevance threshold.
func (r Result) Empty() bool {
	return len(r.Chunks) == 0
}
