package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Chunker cuts a document into ordered retrieval units.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk returns the chunks of doc with Index, Total and ID set.
	// Embeddings are left empty.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
