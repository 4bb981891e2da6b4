package driving

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// IndexService maintains the chunk index and serves scoped similarity search.
// Mutations for one document ID are not atomic relative to each other;
// callers serialise them.
type IndexService interface {
	// AddDocument replaces every entry of docID with the chunks of text.
	// Returns the number of chunks stored; whitespace-only text stores nothing.
	AddDocument(ctx context.Context, docID, text, name string) (int, error)

	// DeleteDocument removes every entry of docID and reports whether any existed.
	DeleteDocument(ctx context.Context, docID string) (bool, error)

	// IsIndexed reports whether docID has at least one entry.
	IsIndexed(ctx context.Context, docID string) (bool, error)

	// Search returns the chunks nearest to query, most relevant first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// GetAllChunks returns every chunk of docID ordered by chunk index.
	GetAllChunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// SearchPassages runs a keyword search over chunk text.
	// Returns domain.ErrPassageIndexUnavailable without a passage index.
	SearchPassages(ctx context.Context, query string, docIDs []string, limit int) ([]domain.Passage, error)
}
