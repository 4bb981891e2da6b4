package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument creates or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, content, path, mime_type, char_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			content = excluded.content,
			path = excluded.path,
			mime_type = excluded.mime_type,
			char_count = excluded.char_count,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Name, doc.Content, doc.Path, doc.MIMEType, doc.CharCount(), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, content, path, mime_type, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Content, &doc.Path, &doc.MIMEType,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns the catalogue, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, path, mime_type, char_count, created_at
		FROM documents ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentSummary
	for rows.Next() {
		var d domain.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.Path, &d.MIMEType, &d.CharCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// RenameDocument changes a document's display name.
func (s *documentStore) RenameDocument(ctx context.Context, id, name string) error {
	result, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET name = ?, updated_at = ? WHERE id = ?", name, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("renaming document: %w", err)
	}
	return requireAffected(result)
}

// DeleteDocument removes a document and, by cascade, its chapter cache.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
