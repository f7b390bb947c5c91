package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/policyq/policyq/internal/log"
)

// PgIndex is a vector index over the policy_chunks table, using pgvector
// cosine distance for nearest-neighbour search.
type PgIndex struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPgIndex creates an index backed by the given connection pool.
func NewPgIndex(pool *pgxpool.Pool, logger log.Logger) *PgIndex {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PgIndex{pool: pool, logger: logger}
}

// Search returns the k nearest chunks to the embedding by cosine
// similarity, best first. Scores are 1 - cosine distance, in [0,1] for
// non-negative embeddings.
func (idx *PgIndex) Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	vec := pgvector.NewVector(embedding)

	rows, err := idx.pool.Query(ctx,
		`SELECT document_id, page, content, 1 - (embedding <=> $1) AS similarity
		 FROM policy_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, k)
	if err != nil {
		return nil, fmt.Errorf("searching policy chunks: %w", err)
	}
	defer rows.Close()

	var chunks []ScoredChunk
	for rows.Next() {
		var c ScoredChunk
		if err := rows.Scan(&c.DocumentID, &c.Page, &c.Text, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// Add stores a chunk with its embedding. The corpus is loaded by an
// external provisioning pipeline; this primitive exists for it and for
// integration tests that seed the index.
func (idx *PgIndex) Add(ctx context.Context, chunk Chunk, embedding []float32) error {
	if _, err := idx.pool.Exec(ctx,
		`INSERT INTO policy_chunks (document_id, page, content, embedding)
		 VALUES ($1, $2, $3, $4)`,
		chunk.DocumentID, chunk.Page, chunk.Text, pgvector.NewVector(embedding)); err != nil {
		return fmt.Errorf("inserting policy chunk: %w", err)
	}
	return nil
}

// DeleteDocument removes every chunk belonging to a document, so a
// reloaded document does not duplicate its chunks.
func (idx *PgIndex) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := idx.pool.Exec(ctx,
		`DELETE FROM policy_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting document chunks: %w", err)
	}
	return nil
}
