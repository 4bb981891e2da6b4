package mcp

import (
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Index provides similarity and keyword search.
	Index driving.IndexService

	// Chat answers questions from retrieved excerpts.
	Chat driving.ChatService

	// Document manages the document catalogue.
	Document driving.DocumentService

	// Analysis runs chapter detection and whole-chapter questions.
	Analysis driving.AnalysisService

	// Stats computes lexical comparisons.
	Stats driving.StatsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
