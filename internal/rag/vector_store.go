package rag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// VectorStore keeps translated rows with their source embeddings in a
// pgvector table and answers similarity queries.
type VectorStore struct {
	pool *pgxpool.Pool
}

// NewVectorStore creates a store. The pool must have the pgvector types
// registered.
func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{pool: pool}
}

// MemoryRecord is one translated row and the embedding of its source.
type MemoryRecord struct {
	Hash        string
	File        string
	Source      string
	Translation string
	Vector      []float32
}

// SearchResult is a similar row found in translation memory.
type SearchResult struct {
	File        string
	Source      string
	Translation string
	Score       float64
}

// EnsureSchema creates the translation memory table for vectors of size dims.
func (vs *VectorStore) EnsureSchema(ctx context.Context, dims int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS translation_memory (
			hash        TEXT PRIMARY KEY,
			file        TEXT NOT NULL,
			source      TEXT NOT NULL,
			translation TEXT NOT NULL,
			embedding   vector(%d) NOT NULL
		)`, dims),
		`CREATE INDEX IF NOT EXISTS translation_memory_embedding_idx
			ON translation_memory USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range statements {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create translation memory schema: %w", err)
		}
	}
	return nil
}

// Store upserts records in one batch.
func (vs *VectorStore) Store(ctx context.Context, records []MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO translation_memory (hash, file, source, translation, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (hash) DO UPDATE
			SET translation = EXCLUDED.translation, embedding = EXCLUDED.embedding
		`, r.Hash, r.File, r.Source, r.Translation, pgvector.NewVector(r.Vector))
	}

	if err := vs.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("store translation memory: %w", err)
	}

	log.Debug().Int("count", len(records)).Msg("Stored translation memory")
	return nil
}

// Search returns the topK rows whose source is closest to queryVector.
func (vs *VectorStore) Search(ctx context.Context, queryVector []float32, topK int) ([]SearchResult, error) {
	rows, err := vs.pool.Query(ctx, `
		SELECT file, source, translation, 1 - (embedding <=> $1) AS similarity
		FROM translation_memory
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.File, &r.Source, &r.Translation, &r.Score); err != nil {
			return nil, fmt.Errorf("scan vector search: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return results, nil
}
