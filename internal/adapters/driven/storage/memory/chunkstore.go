package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/embedding"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory chunk index with brute-force cosine search.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.Chunk // by document ID, ordered by index
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[string][]domain.Chunk)}
}

// ReplaceDocumentChunks swaps every chunk of docID for chunks.
func (s *ChunkStore) ReplaceDocumentChunks(_ context.Context, docID string, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if c.DocumentID != docID {
			return fmt.Errorf("%w: chunk %s belongs to %q, not %q",
				domain.ErrInvalidInput, c.ID, c.DocumentID, docID)
		}
	}

	sorted := slices.Clone(chunks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(sorted) == 0 {
		delete(s.chunks, docID)
		return nil
	}
	s.chunks[docID] = sorted
	return nil
}

// DeleteDocumentChunks removes every chunk of docID.
func (s *ChunkStore) DeleteDocumentChunks(_ context.Context, docID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.chunks[docID])
	delete(s.chunks, docID)
	return n, nil
}

// CountDocumentChunks returns the number of chunks stored for docID.
func (s *ChunkStore) CountDocumentChunks(_ context.Context, docID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[docID]), nil
}

// GetDocumentChunks returns the chunks of docID ordered by index.
func (s *ChunkStore) GetDocumentChunks(_ context.Context, docID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chunks[docID]), nil
}

// SearchChunks ranks the candidate chunks by cosine distance to query.
func (s *ChunkStore) SearchChunks(
	_ context.Context,
	query []float32,
	docIDs []string,
	k int,
) ([]domain.SearchResult, error) {
	results := []domain.SearchResult{}
	if k <= 0 {
		return results, nil
	}

	s.mu.RLock()
	var candidates []domain.Chunk
	if docIDs == nil {
		for _, chunks := range s.chunks {
			candidates = append(candidates, chunks...)
		}
	} else {
		for _, id := range dedupe(docIDs) {
			candidates = append(candidates, s.chunks[id]...)
		}
	}
	s.mu.RUnlock()

	for _, c := range candidates {
		if err := embedding.MatchDimensions(query, c.Embedding); err != nil {
			return nil, err
		}
		d := embedding.CosineDistance(query, c.Embedding)
		results = append(results, domain.SearchResult{
			Content:  c.Content,
			Metadata: c.Metadata(),
			Distance: &d,
		})
	}

	// Map iteration is random; break distance ties by key for stable output.
	sort.SliceStable(results, func(i, j int) bool {
		di, dj := *results[i].Distance, *results[j].Distance
		if di != dj {
			return di < dj
		}
		mi, mj := results[i].Metadata, results[j].Metadata
		if mi.DocumentID != mj.DocumentID {
			return mi.DocumentID < mj.DocumentID
		}
		return mi.ChunkIndex < mj.ChunkIndex
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Close releases resources.
func (s *ChunkStore) Close() error {
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
