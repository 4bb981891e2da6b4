package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure DocumentStore implements the document and chapter ports.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.ChapterCache  = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory document catalogue with a chapter cache.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chapters  map[string][]domain.ChapterSpan
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chapters:  make(map[string][]domain.ChapterSpan),
	}
}

// SaveDocument creates or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns the catalogue, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.DocumentSummary, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d.Summary())
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].Name < docs[j].Name
	})
	return docs, nil
}

// RenameDocument changes a document's display name.
func (s *DocumentStore) RenameDocument(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Name = name
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document and its cached chapters.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.chapters, id)
	return nil
}

// GetChapterMetadata returns the cached spans of a document.
func (s *DocumentStore) GetChapterMetadata(_ context.Context, docID string) ([]domain.ChapterSpan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spans, ok := s.chapters[docID]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(spans), true, nil
}

// SaveChapterMetadata replaces the cached spans of a document.
func (s *DocumentStore) SaveChapterMetadata(_ context.Context, docID string, spans []domain.ChapterSpan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[docID]; !ok {
		return domain.ErrNotFound
	}
	if spans == nil {
		spans = []domain.ChapterSpan{}
	}
	s.chapters[docID] = slices.Clone(spans)
	return nil
}

// DeleteChapterMetadata drops the cached spans of a document.
func (s *DocumentStore) DeleteChapterMetadata(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chapters, docID)
	return nil
}
