package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages the document catalogue and keeps the
// chunk index and chapter cache consistent with it.
type DocumentService struct {
	docs       driven.DocumentStore
	chapters   driven.ChapterCache
	index      driving.IndexService
	extractors driven.ExtractorRegistry

	readFile func(string) ([]byte, error)
	now      func() time.Time
}

// NewDocumentService creates a new document service.
// chapters may be nil when no chapter cache is configured.
func NewDocumentService(
	docs driven.DocumentStore,
	chapters driven.ChapterCache,
	index driving.IndexService,
	extractors driven.ExtractorRegistry,
) *DocumentService {
	return &DocumentService{
		docs:       docs,
		chapters:   chapters,
		index:      index,
		extractors: extractors,
		readFile:   os.ReadFile,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Import reads a file, extracts its text, stores and indexes it.
// Re-importing a known path replaces that document and keeps its ID and name.
func (s *DocumentService) Import(ctx context.Context, path string) (*domain.ImportResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	if s.extractors == nil {
		return nil, domain.ErrNotImplemented
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	content, err := s.readFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	file := &domain.SourceFile{
		Path:     abs,
		MIMEType: s.extractors.DetectMIMEType(abs),
		Content:  content,
	}
	extraction, err := s.extractors.Extract(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(abs), err)
	}
	if strings.TrimSpace(extraction.Text) == "" {
		return nil, fmt.Errorf("%w: no text extracted from %s", domain.ErrInvalidInput, filepath.Base(abs))
	}

	now := s.now()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		Name:      documentNameFor(extraction, abs),
		Content:   extraction.Text,
		Path:      abs,
		MIMEType:  file.MIMEType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	existing, err := s.FindByPath(ctx, abs)
	switch {
	case err == nil:
		doc.ID = existing.ID
		doc.Name = existing.Name
		doc.CreatedAt = existing.CreatedAt
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	logger.Debug("Importing %s as %s (%s, %s)", abs, doc.ID, doc.MIMEType, extraction.Format)
	return s.store(ctx, doc, existing != nil)
}

// ImportText stores and indexes text that did not come from a file.
func (s *DocumentService) ImportText(ctx context.Context, name, text string) (*domain.ImportResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}

	now := s.now()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		Name:      name,
		Content:   text,
		MIMEType:  "text/plain",
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.store(ctx, doc, false)
}

// store indexes doc, then saves it. When the save fails the index is
// put back: a new document loses its entries and a replaced one is
// indexed again from the text still in the catalogue.
func (s *DocumentService) store(ctx context.Context, doc *domain.Document, replaced bool) (*domain.ImportResult, error) {
	chunks, err := s.index.AddDocument(ctx, doc.ID, doc.Content, doc.Name)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", doc.Name, err)
	}

	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		s.rollback(context.WithoutCancel(ctx), doc.ID, replaced)
		return nil, fmt.Errorf("save %s: %w", doc.Name, err)
	}

	if replaced && s.chapters != nil {
		if err := s.chapters.DeleteChapterMetadata(ctx, doc.ID); err != nil {
			logger.Warn("Failed to drop cached chapters of %s: %v", doc.ID, err)
		}
	}

	logger.Info("Imported %s (%d chunks)", doc.Name, chunks)
	return &domain.ImportResult{
		Document: doc.Summary(),
		Chunks:   chunks,
		Replaced: replaced,
	}, nil
}

func (s *DocumentService) rollback(ctx context.Context, id string, replaced bool) {
	if !replaced {
		if _, err := s.index.DeleteDocument(ctx, id); err != nil {
			logger.Warn("Failed to roll back index entries of %s: %v", id, err)
		}
		return
	}
	prev, err := s.docs.GetDocument(ctx, id)
	if err == nil {
		_, err = s.index.AddDocument(ctx, prev.ID, prev.Content, prev.Name)
	}
	if err != nil {
		logger.Warn("Index of %s no longer matches the catalogue, run docs reindex: %v", id, err)
	}
}

// List returns the catalogue.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	return s.docs.ListDocuments(ctx)
}

// Get returns one document with its content.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.GetDocument(ctx, id)
}

// FindByPath returns the document imported from path.
func (s *DocumentService) FindByPath(ctx context.Context, path string) (*domain.DocumentSummary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].Path == abs {
			return &docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// Rename changes the display name, then reindexes so every chunk carries
// the new name.
func (s *DocumentService) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := s.docs.RenameDocument(ctx, id, name); err != nil {
		return err
	}
	if _, err := s.Reindex(ctx, id); err != nil {
		return fmt.Errorf("restamp index: %w", err)
	}
	return nil
}

// Reindex rebuilds the index entries of a document from its stored content.
func (s *DocumentService) Reindex(ctx context.Context, id string) (int, error) {
	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.index.AddDocument(ctx, doc.ID, doc.Content, doc.Name)
}

// Delete removes the document, its index entries and its cached chapters.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if _, err := s.docs.GetDocument(ctx, id); err != nil {
		return err
	}
	if _, err := s.index.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("remove index entries: %w", err)
	}
	if s.chapters != nil {
		if err := s.chapters.DeleteChapterMetadata(ctx, id); err != nil {
			return fmt.Errorf("drop cached chapters: %w", err)
		}
	}
	return s.docs.DeleteDocument(ctx, id)
}

// documentNameFor prefers the extracted title, then the file name.
func documentNameFor(extraction *domain.Extraction, path string) string {
	if title := strings.TrimSpace(extraction.Title); title != "" {
		return title
	}
	return filepath.Base(path)
}
