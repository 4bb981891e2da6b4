package domain

// DefaultTopK is the retrieval depth used when a caller passes none.
const DefaultTopK = 5

// SearchOptions scopes a similarity search.
type SearchOptions struct {
	// DocIDs restricts results to these documents.
	// A nil slice searches the whole index; a non-nil empty slice matches nothing.
	DocIDs []string

	// TopK is the maximum number of results. Non-positive means DefaultTopK.
	TopK int
}

// Scoped reports whether the search is restricted to a document set.
func (o SearchOptions) Scoped() bool {
	return o.DocIDs != nil
}

// Limit returns the effective result count.
func (o SearchOptions) Limit() int {
	if o.TopK <= 0 {
		return DefaultTopK
	}
	return o.TopK
}

// SearchResult is one chunk returned by similarity search.
type SearchResult struct {
	// Content is the chunk text.
	Content string `json:"content" yaml:"content"`

	// Metadata identifies the chunk's document and position.
	Metadata ChunkMetadata `json:"metadata" yaml:"metadata"`

	// Distance is the similarity distance; lower is closer. Nil when the
	// store does not report one.
	Distance *float64 `json:"distance,omitempty" yaml:"distance,omitempty"`
}

// Passage is a keyword hit from the passage index.
type Passage struct {
	ChunkID      string  `json:"chunk_id" yaml:"chunk_id"`
	DocumentID   string  `json:"doc_id" yaml:"doc_id"`
	DocumentName string  `json:"doc_name" yaml:"doc_name"`
	ChunkIndex   int     `json:"chunk_index" yaml:"chunk_index"`
	Content      string  `json:"content" yaml:"content"`
	Score        float64 `json:"score" yaml:"score"`
}
