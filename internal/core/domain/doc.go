// Package domain defines the core entities for Marginalia.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: an imported text body with a display name
//   - Chunk: an overlapping retrieval unit cut from a document
//   - ChapterSpan: a contiguous chapter range inside a document
//   - SearchResult: a ranked chunk returned by similarity search
//   - GenerationError: the normalised failure of a generation backend
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
