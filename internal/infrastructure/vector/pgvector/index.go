// Package pgvector provides the similarity index over Postgres with the
// pgvector extension. An in-memory implementation of the same port lives in
// memory.go for tests and pgvector-less deployments.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

type Index struct {
	pool *pgxpool.Pool
	dim  int
}

// New connects a pool and bootstraps the embeddings table. The table is owned
// by this component; the document repositories never touch it.
func New(ctx context.Context, dsn string, dim int) (*Index, error) {
	if dim <= 0 {
		dim = 1536
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect pgvector pool: %w", err)
	}
	idx := &Index{pool: pool, dim: dim}
	if err := idx.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) ensureSchema(ctx context.Context) error {
	if _, err := i.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS document_embeddings (
	document_id TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
	embedding vector(%d) NOT NULL
)`, i.dim)
	if _, err := i.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create embeddings table: %w", err)
	}

	const createIndex = `
CREATE INDEX IF NOT EXISTS document_embeddings_cosine_idx
ON document_embeddings
USING ivfflat (embedding vector_cosine_ops)
WITH (lists = 100)`
	if _, err := i.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("create cosine index: %w", err)
	}
	return nil
}

// Upsert stores a document embedding; last write wins for re-embeddings.
func (i *Index) Upsert(ctx context.Context, documentID string, embedding []float32) error {
	if len(embedding) != i.dim {
		return fmt.Errorf("embedding dimension %d, index expects %d", len(embedding), i.dim)
	}
	_, err := i.pool.Exec(ctx, `
INSERT INTO document_embeddings (document_id, embedding)
VALUES ($1, $2)
ON CONFLICT (document_id) DO UPDATE SET embedding = EXCLUDED.embedding
`, documentID, pgv.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// Query returns up to k nearest documents by cosine distance. A cold index
// yields an empty result, never an error.
func (i *Index) Query(ctx context.Context, embedding []float32, k int) ([]ports.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := i.pool.Query(ctx, `
SELECT document_id, embedding <=> $1 AS distance
FROM document_embeddings
ORDER BY embedding <=> $1
LIMIT $2
`, pgv.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var out []ports.Neighbor
	for rows.Next() {
		var n ports.Neighbor
		var distance float64
		if err := rows.Scan(&n.DocumentID, &distance); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		n.Distance = float32(distance)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return out, nil
}

func (i *Index) Close() {
	if i.pool != nil {
		i.pool.Close()
	}
}
