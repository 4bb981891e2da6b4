// Package chunker cuts document text into overlapping retrieval units.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Separators are the sentence-like boundaries a window may snap back to,
// in the order they are tried.
var Separators = []string{". ", ".\n", "!\n", "?\n", "\n\n"}

// Split cuts text into windows of chunkSize characters (runes).
//
// Text no longer than chunkSize is returned whole. Otherwise each boundary
// that is not at the end of the text snaps back to the last separator in
// the window, provided that separator lies past the window midpoint. The
// next window starts overlap characters before the previous end. Chunks
// are trimmed and empty ones dropped; the untrimmed windows cover the
// whole input in order.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := (domain.ChunkingSettings{Size: chunkSize, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}, nil
	}

	bounds := windows(runes, chunkSize, overlap)
	chunks := make([]string, 0, len(bounds))
	for _, w := range bounds {
		if piece := strings.TrimSpace(string(runes[w[0]:w[1]])); piece != "" {
			chunks = append(chunks, piece)
		}
	}

	return chunks, nil
}

// windows returns the untrimmed [start, end) rune ranges of each chunk.
func windows(runes []rune, chunkSize, overlap int) [][2]int {
	var bounds [][2]int
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snap(runes, start, end, chunkSize)
		}

		bounds = append(bounds, [2]int{start, end})
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			// A snapped window shorter than the overlap would stall.
			next = end
		}
		start = next
	}
	return bounds
}

// snap moves end back to just after a separator inside runes[start:end].
func snap(runes []rune, start, end, chunkSize int) int {
	window := runes[start:end]
	for _, sep := range Separators {
		sepRunes := []rune(sep)
		if last := lastIndex(window, sepRunes); last > chunkSize/2 {
			return start + last + len(sepRunes)
		}
	}
	return end
}

// lastIndex returns the rune offset of the last occurrence of sep in s, or -1.
func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Processor turns documents into indexed chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker processor. Invalid sizes are rejected
// with domain.ErrInvalidConfig rather than adjusted.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := (domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}).Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits the document content into chunks keyed by domain.ChunkID.
// Whitespace-only content produces no chunks.
func (p *Processor) Chunk(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	pieces, err := Split(doc.Content, p.chunkSize, p.overlap)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:           domain.ChunkID(doc.ID, i),
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Index:        i,
			Total:        len(pieces),
			Content:      piece,
		}
	}

	return chunks, nil
}
