// Package tui provides an interactive terminal user interface for marginalia.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions over the selected documents.
	Chat driving.ChatService

	// Index provides similarity search.
	Index driving.IndexService

	// Document lists and loads documents.
	Document driving.DocumentService

	// Settings supplies retrieval depth. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	chat driving.ChatService,
	index driving.IndexService,
	document driving.DocumentService,
) *Ports {
	return &Ports{
		Chat:     chat,
		Index:    index,
		Document: document,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
