package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// PassageIndex provides keyword search over chunk text.
// It complements the similarity search of the ChunkStore with exact-term lookup.
type PassageIndex interface {
	// IndexChunks adds or replaces chunks in the index.
	IndexChunks(ctx context.Context, chunks []domain.Chunk) error

	// DeleteDocument removes every chunk of a document.
	DeleteDocument(ctx context.Context, docID string) error

	// Search returns up to limit keyword matches, best first.
	// A nil docIDs searches every document.
	Search(ctx context.Context, query string, docIDs []string, limit int) ([]domain.Passage, error)

	// Close releases resources.
	Close() error
}
