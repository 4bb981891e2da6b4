// Package textindex provides a keyword passage index over chunk text,
// backed by bleve. It answers exact-term lookups that similarity search
// ranks poorly, such as names and rare words.
package textindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.PassageIndex = (*Index)(nil)

const (
	fieldDocID      = "doc_id"
	fieldDocName    = "doc_name"
	fieldChunkIndex = "chunk_index"
	fieldContent    = "content"

	deletePageSize = 1000

	// lockTimeout bounds the wait for another process holding the index.
	lockTimeout = "2s"
)

// Index is a bleve-backed driven.PassageIndex.
type Index struct {
	index bleve.Index
}

// Open opens the index in dir, creating it when missing.
// An empty dir creates a memory-only index.
func Open(dir string) (*Index, error) {
	if dir == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("%w: create memory index: %w", domain.ErrPassageIndexUnavailable, err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.OpenUsing(dir, map[string]interface{}{"bolt_timeout": lockTimeout})
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		// bleve.New creates dir itself and fails if it already exists.
		if mkErr := os.MkdirAll(filepath.Dir(dir), 0o755); mkErr != nil {
			return nil, fmt.Errorf("%w: create index dir: %w", domain.ErrPassageIndexUnavailable, mkErr)
		}
		logger.Debug("Creating passage index at %s", dir)
		idx, err = bleve.New(dir, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open bleve index: %w", domain.ErrPassageIndexUnavailable, err)
	}
	return &Index{index: idx}, nil
}

// IndexChunks adds or replaces chunks, keyed by chunk ID.
func (x *Index) IndexChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := x.index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, map[string]any{
			fieldDocID:      c.DocumentID,
			fieldDocName:    c.DocumentName,
			fieldChunkIndex: float64(c.Index),
			fieldContent:    c.Content,
		}); err != nil {
			return fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("write passage batch: %w", err)
	}
	return nil
}

// DeleteDocument removes every passage of docID.
func (x *Index) DeleteDocument(ctx context.Context, docID string) error {
	q := bleve.NewTermQuery(docID)
	q.SetField(fieldDocID)

	for {
		req := bleve.NewSearchRequestOptions(q, deletePageSize, 0, false)
		res, err := x.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("find passages of %s: %w", docID, err)
		}
		if len(res.Hits) == 0 {
			return nil
		}

		batch := x.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := x.index.Batch(batch); err != nil {
			return fmt.Errorf("delete passages of %s: %w", docID, err)
		}
	}
}

// Search returns up to limit passages matching query, best first.
// A blank query or an empty non-nil docIDs returns no passages.
func (x *Index) Search(ctx context.Context, query string, docIDs []string, limit int) ([]domain.Passage, error) {
	passages := []domain.Passage{}
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 || (docIDs != nil && len(docIDs) == 0) {
		return passages, nil
	}

	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField(fieldContent)

	var q blevequery.Query = contentQuery
	if docIDs != nil {
		scope := make([]blevequery.Query, len(docIDs))
		for i, id := range docIDs {
			tq := bleve.NewTermQuery(id)
			tq.SetField(fieldDocID)
			scope[i] = tq
		}
		q = bleve.NewConjunctionQuery(contentQuery, bleve.NewDisjunctionQuery(scope...))
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{fieldDocID, fieldDocName, fieldChunkIndex, fieldContent}

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPassageIndexUnavailable, err)
	}

	for _, hit := range res.Hits {
		p := domain.Passage{ChunkID: hit.ID, Score: hit.Score}
		p.DocumentID, _ = hit.Fields[fieldDocID].(string)
		p.DocumentName, _ = hit.Fields[fieldDocName].(string)
		p.Content, _ = hit.Fields[fieldContent].(string)
		if n, ok := hit.Fields[fieldChunkIndex].(float64); ok {
			p.ChunkIndex = int(n)
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// Count returns the number of indexed passages.
func (x *Index) Count() (uint64, error) {
	return x.index.DocCount()
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = fieldContent

	docMapping := bleve.NewDocumentMapping()

	idField := bleve.NewTextFieldMapping()
	idField.Store = true
	idField.Index = true
	idField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt(fieldDocID, idField)

	nameField := bleve.NewTextFieldMapping()
	nameField.Store = true
	nameField.Index = true
	docMapping.AddFieldMappingsAt(fieldDocName, nameField)

	indexField := bleve.NewNumericFieldMapping()
	indexField.Store = true
	indexField.Index = false
	docMapping.AddFieldMappingsAt(fieldChunkIndex, indexField)

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = true
	contentField.Index = true
	docMapping.AddFieldMappingsAt(fieldContent, contentField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
