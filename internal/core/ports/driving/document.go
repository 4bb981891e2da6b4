package driving

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// DocumentService manages the document collection and keeps the index in step.
type DocumentService interface {
	// Import reads a file, extracts its text, stores and indexes it.
	// Re-importing a known path replaces that document.
	Import(ctx context.Context, path string) (*domain.ImportResult, error)

	// ImportText stores and indexes text that did not come from a file.
	ImportText(ctx context.Context, name, text string) (*domain.ImportResult, error)

	// List returns the catalogue.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// Get returns one document with its content.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// FindByPath returns the document imported from path.
	// Returns domain.ErrNotFound if there is none.
	FindByPath(ctx context.Context, path string) (*domain.DocumentSummary, error)

	// Rename changes the display name and restamps the index.
	Rename(ctx context.Context, id, name string) error

	// Reindex rebuilds the index entries of a document.
	Reindex(ctx context.Context, id string) (int, error)

	// Delete removes the document, its index entries and its cached chapters.
	Delete(ctx context.Context, id string) error
}
