package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// ChunkStore persists embedded chunks and answers nearest-neighbour queries.
// Entries are keyed by domain.ChunkID. Errors mean the storage is unavailable
// and are fatal to the caller.
type ChunkStore interface {
	// ReplaceDocumentChunks removes every entry of docID and inserts chunks.
	ReplaceDocumentChunks(ctx context.Context, docID string, chunks []domain.Chunk) error

	// DeleteDocumentChunks removes every entry of docID and returns how many were removed.
	DeleteDocumentChunks(ctx context.Context, docID string) (int, error)

	// CountDocumentChunks returns the number of entries for docID.
	CountDocumentChunks(ctx context.Context, docID string) (int, error)

	// GetDocumentChunks returns the entries of docID ordered by chunk index.
	GetDocumentChunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// SearchChunks returns up to k entries nearest to query, by ascending distance.
	// A nil docIDs searches everything; a non-nil slice restricts to its members.
	SearchChunks(ctx context.Context, query []float32, docIDs []string, k int) ([]domain.SearchResult, error)

	// Close releases resources.
	Close() error
}
