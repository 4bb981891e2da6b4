package plaintext

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/markdown",
		"text/x-markdown",
		"text/html",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Extract returns the file content as text. The title comes from the file name.
func (n *Normaliser) Extract(_ context.Context, file *domain.SourceFile) (*domain.Extraction, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	return &domain.Extraction{
		Title:  normalisers.TitleFromPath(file.Path),
		Text:   normalisers.Decode(file.Content),
		Format: "plaintext",
	}, nil
}
