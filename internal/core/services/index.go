package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService keeps the chunk index of each document in step with its text.
// The passage index is optional and mirrors the chunk store when present.
type IndexService struct {
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	chunks   driven.ChunkStore
	passages driven.PassageIndex
}

// NewIndexService creates a new index service.
// The passages parameter is optional (can be nil).
func NewIndexService(
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	chunks driven.ChunkStore,
	passages driven.PassageIndex,
) *IndexService {
	return &IndexService{
		chunker:  chunker,
		embedder: embedder,
		chunks:   chunks,
		passages: passages,
	}
}

// AddDocument replaces every entry of docID with the chunks of text.
func (s *IndexService) AddDocument(ctx context.Context, docID, text, name string) (int, error) {
	if docID == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	logger.Debug("Indexing %s (%q) with %s", docID, name, s.chunker.Name())

	chunks, err := s.chunker.Chunk(ctx, &domain.Document{ID: docID, Name: name, Content: text})
	if err != nil {
		return 0, err
	}

	if len(chunks) > 0 {
		if s.embedder == nil {
			return 0, domain.ErrEmbeddingUnavailable
		}
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed %s: %w", docID, err)
		}
		if len(vectors) != len(chunks) {
			return 0, fmt.Errorf("%w: got %d embeddings for %d chunks",
				domain.ErrEmbeddingUnavailable, len(vectors), len(chunks))
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	if err := s.chunks.ReplaceDocumentChunks(ctx, docID, chunks); err != nil {
		return 0, err
	}

	if s.passages != nil {
		if err := s.passages.DeleteDocument(ctx, docID); err != nil {
			return 0, err
		}
		if err := s.passages.IndexChunks(ctx, chunks); err != nil {
			return 0, err
		}
	}

	logger.Debug("Indexed %s: %d chunks", docID, len(chunks))
	return len(chunks), nil
}

// DeleteDocument removes every entry of docID.
func (s *IndexService) DeleteDocument(ctx context.Context, docID string) (bool, error) {
	removed, err := s.chunks.DeleteDocumentChunks(ctx, docID)
	if err != nil {
		return false, err
	}

	if s.passages != nil {
		if err := s.passages.DeleteDocument(ctx, docID); err != nil {
			return false, err
		}
	}

	logger.Debug("Removed %d chunks of %s", removed, docID)
	return removed > 0, nil
}

// IsIndexed reports whether docID has at least one entry.
func (s *IndexService) IsIndexed(ctx context.Context, docID string) (bool, error) {
	n, err := s.chunks.CountDocumentChunks(ctx, docID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Search returns the chunks nearest to query, most relevant first.
// A blank query or an empty document scope returns no results without embedding.
func (s *IndexService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Similarity Search")
	logger.Debug("Query: %q, scope: %v, top_k: %d", query, opts.DocIDs, opts.Limit())

	if strings.TrimSpace(query) == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if opts.Scoped() && len(opts.DocIDs) == 0 {
		logger.Debug("Empty scope, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.chunks.SearchChunks(ctx, vector, opts.DocIDs, opts.Limit())
	if err != nil {
		return nil, err
	}

	logger.Debug("Results: %d", len(results))
	return results, nil
}

// GetAllChunks returns every chunk of docID ordered by chunk index.
func (s *IndexService) GetAllChunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	return s.chunks.GetDocumentChunks(ctx, docID)
}

// SearchPassages runs a keyword search over chunk text.
func (s *IndexService) SearchPassages(
	ctx context.Context, query string, docIDs []string, limit int,
) ([]domain.Passage, error) {
	if s.passages == nil {
		return nil, domain.ErrPassageIndexUnavailable
	}
	return s.passages.Search(ctx, query, docIDs, limit)
}
