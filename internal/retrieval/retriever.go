package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/policyq/policyq/internal/log"
)

// searchTimeout bounds the whole embed-and-search pipeline.
const searchTimeout = 10 * time.Second

// Index is what the Retriever needs from a vector index: the k nearest
// chunks to the query embedding by cosine similarity, best first.
type Index interface {
	Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error)
}

// Retriever turns a query string into relevant policy chunks.
// It is safe for concurrent use.
type Retriever struct {
	embedder    ai.Embedder
	index       Index
	topK        int
	threshold   float64
	boilerplate []string
	logger      log.Logger
}

// NewRetriever creates a retriever. topK is the number of nearest
// neighbours fetched from the index; threshold is the minimum cosine
// similarity a chunk must score to be kept.
func NewRetriever(embedder ai.Embedder, index Index, topK int, threshold float64, boilerplate []string, logger log.Logger) *Retriever {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{
		embedder:    embedder,
		index:       index,
		topK:        topK,
		threshold:   threshold,
		boilerplate: boilerplate,
		logger:      logger,
	}
}

// Retrieve embeds the query and returns the chunks that clear the
// relevance threshold, best first. An all-filtered candidate set yields
// an empty Result and a nil error; infrastructure failures are reported
// as ErrEmbeddingUnavailable or ErrRetrievalUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, query string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	dim := VectorDimension
	resp, err := r.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(query, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return Result{}, fmt.Errorf("%w: empty embedding returned", ErrEmbeddingUnavailable)
	}

	candidates, err := r.index.Search(ctx, resp.Embeddings[0].Embedding, r.topK)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	kept := make([]ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity < r.threshold {
			continue
		}
		c.Text = CleanText(c.Text, r.boilerplate)
		kept = append(kept, c)
	}

	r.logger.Debug("retrieval completed",
		"candidates", len(candidates),
		"kept", len(kept),
		"threshold", r.threshold)

	return Result{Chunks: kept}, nil
}
