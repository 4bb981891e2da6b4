package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Extractor recovers plain text from a source file.
// Each extractor handles specific MIME types (e.g. PDF, Markdown).
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors return 50-89, fallbacks 1-9.
	Priority() int

	// Extract returns the text of the file.
	Extract(ctx context.Context, file *domain.SourceFile) (*domain.Extraction, error)
}

// ExtractorRegistry selects the best extractor for a file.
type ExtractorRegistry interface {
	// Extract uses the highest-priority extractor for the file's MIME type.
	// Returns domain.ErrUnsupportedType if none matches.
	Extract(ctx context.Context, file *domain.SourceFile) (*domain.Extraction, error)

	// Register adds an extractor.
	Register(extractor Extractor)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string

	// DetectMIMEType maps a file path to a MIME type.
	DetectMIMEType(path string) string
}
