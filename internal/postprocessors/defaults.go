// Package postprocessors builds the text segmenters from application settings.
package postprocessors

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/postprocessors/chapters"
	"github.com/custodia-labs/marginalia/internal/postprocessors/chunker"
)

// NewChunker creates the chunker described by the chunking settings.
// Zero values fall back to the defaults.
func NewChunker(cfg domain.ChunkingSettings) (*chunker.Processor, error) {
	var opts []chunker.Option

	if cfg.Size != 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.Size))
	}
	if cfg.Size != 0 || cfg.Overlap != 0 {
		opts = append(opts, chunker.WithOverlap(cfg.Overlap))
	}

	return chunker.New(opts...)
}

// NewDetector creates the chapter detector described by the chapter settings.
// A nil digit-fix table keeps the built-in one; an empty table disables it.
func NewDetector(cfg domain.ChapterSettings) *chapters.Detector {
	var opts []chapters.Option

	if cfg.DigitFixes != nil {
		opts = append(opts, chapters.WithDigitFixes(cfg.DigitFixes))
	}

	return chapters.New(opts...)
}
