package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Document is an imported text body.
// The content is immutable once extracted; only the name may change.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable display name.
	Name string `json:"name" yaml:"name"`

	// Content is the full extracted text.
	Content string `json:"-" yaml:"-"`

	// Path is the file the document was imported from, if any.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// MIMEType is the type of the source file.
	MIMEType string `json:"mime_type" yaml:"mime_type"`

	// CreatedAt is when the document was imported.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the document was last changed.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// CharCount returns the number of characters (runes) in the content.
func (d *Document) CharCount() int {
	return utf8.RuneCountInString(d.Content)
}

// Summary returns the catalogue view of the document.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:        d.ID,
		Name:      d.Name,
		Path:      d.Path,
		MIMEType:  d.MIMEType,
		CharCount: d.CharCount(),
		CreatedAt: d.CreatedAt,
	}
}

// DocumentSummary is a document without its body, as listed in the catalogue.
type DocumentSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path,omitempty" yaml:"path,omitempty"`
	MIMEType  string    `json:"mime_type" yaml:"mime_type"`
	CharCount int       `json:"char_count" yaml:"char_count"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Chunk is one retrieval unit of a document, produced by a single chunking pass.
type Chunk struct {
	// ID is the stable index key, see ChunkID.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// DocumentName is the document's display name at indexing time.
	DocumentName string

	// Index is the position within the pass, contiguous from 0.
	Index int

	// Total is the number of chunks the pass produced.
	Total int

	// Content is the trimmed chunk text.
	Content string

	// Embedding is the vector representation for similarity search.
	Embedding []float32
}

// Metadata returns the metadata attached to the chunk in the index.
func (c Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		DocumentID:   c.DocumentID,
		DocumentName: c.DocumentName,
		ChunkIndex:   c.Index,
		TotalChunks:  c.Total,
	}
}

// ChunkMetadata identifies where a chunk came from.
type ChunkMetadata struct {
	DocumentID   string `json:"doc_id" yaml:"doc_id"`
	DocumentName string `json:"doc_name" yaml:"doc_name"`
	ChunkIndex   int    `json:"chunk_index" yaml:"chunk_index"`
	TotalChunks  int    `json:"total_chunks" yaml:"total_chunks"`
}

// ChunkID returns the index key for chunk i of a document.
// The format is part of the storage contract: reindexing a document
// reproduces the same keys, which keeps replacement idempotent.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, index)
}
