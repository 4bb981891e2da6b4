package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// chapterCache implements driven.ChapterCache.
// Spans are stored as one JSON array per document.
type chapterCache struct {
	store *Store
}

var _ driven.ChapterCache = (*chapterCache)(nil)

// GetChapterMetadata returns the cached spans of a document.
func (c *chapterCache) GetChapterMetadata(ctx context.Context, docID string) ([]domain.ChapterSpan, bool, error) {
	var raw string
	err := c.store.db.QueryRowContext(ctx, "SELECT spans FROM chapters WHERE document_id = ?", docID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading chapters: %w", err)
	}

	spans := []domain.ChapterSpan{}
	if err := json.Unmarshal([]byte(raw), &spans); err != nil {
		return nil, false, fmt.Errorf("unmarshalling chapters: %w", err)
	}
	return spans, true, nil
}

// SaveChapterMetadata replaces the cached spans of a document.
func (c *chapterCache) SaveChapterMetadata(ctx context.Context, docID string, spans []domain.ChapterSpan) error {
	if spans == nil {
		spans = []domain.ChapterSpan{}
	}
	raw, err := json.Marshal(spans)
	if err != nil {
		return fmt.Errorf("marshalling chapters: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO chapters (document_id, spans, detected_at)
		VALUES (?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			spans = excluded.spans,
			detected_at = excluded.detected_at
	`, docID, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving chapters: %w", err)
	}
	return nil
}

// DeleteChapterMetadata drops the cached spans of a document.
func (c *chapterCache) DeleteChapterMetadata(ctx context.Context, docID string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM chapters WHERE document_id = ?", docID); err != nil {
		return fmt.Errorf("deleting chapters: %w", err)
	}
	return nil
}
