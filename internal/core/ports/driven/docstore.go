package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// DocumentStore persists imported documents.
type DocumentStore interface {
	// SaveDocument creates or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns the catalogue, oldest first.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// RenameDocument changes a document's display name.
	RenameDocument(ctx context.Context, id, name string) error

	// DeleteDocument removes a document.
	// Returns domain.ErrNotFound if it does not exist.
	DeleteDocument(ctx context.Context, id string) error
}

// ChapterCache persists detected chapter spans per document.
type ChapterCache interface {
	// GetChapterMetadata returns the cached spans of a document.
	// A document with no cached entry returns (nil, false, nil).
	GetChapterMetadata(ctx context.Context, docID string) ([]domain.ChapterSpan, bool, error)

	// SaveChapterMetadata replaces the cached spans of a document.
	// An empty slice records that detection found nothing.
	SaveChapterMetadata(ctx context.Context, docID string, spans []domain.ChapterSpan) error

	// DeleteChapterMetadata drops the cached spans of a document.
	DeleteChapterMetadata(ctx context.Context, docID string) error
}
