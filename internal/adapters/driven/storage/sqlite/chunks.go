package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/embedding"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// ReplaceDocumentChunks swaps every chunk of docID for chunks in one transaction.
func (s *chunkStore) ReplaceDocumentChunks(ctx context.Context, docID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", docID); err != nil {
		return fmt.Errorf("deleting old chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, document_name, chunk_index, total_chunks, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			document_name = excluded.document_name,
			chunk_index = excluded.chunk_index,
			total_chunks = excluded.total_chunks,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if c.DocumentID != docID {
			return fmt.Errorf("%w: chunk %s belongs to %q, not %q",
				domain.ErrInvalidInput, c.ID, c.DocumentID, docID)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.DocumentName, c.Index, c.Total,
			c.Content, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteDocumentChunks removes every chunk of docID.
func (s *chunkStore) DeleteDocumentChunks(ctx context.Context, docID string) (int, error) {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", docID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking affected rows: %w", err)
	}
	return int(n), nil
}

// CountDocumentChunks returns the number of chunks stored for docID.
func (s *chunkStore) CountDocumentChunks(ctx context.Context, docID string) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = ?", docID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// GetDocumentChunks returns the chunks of docID ordered by index.
func (s *chunkStore) GetDocumentChunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, document_name, chunk_index, total_chunks, content, embedding
		FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.DocumentName, &c.Index, &c.Total, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// SearchChunks ranks the candidate chunks by cosine distance to query.
func (s *chunkStore) SearchChunks(
	ctx context.Context,
	query []float32,
	docIDs []string,
	k int,
) ([]domain.SearchResult, error) {
	if k <= 0 || (docIDs != nil && len(docIDs) == 0) {
		return []domain.SearchResult{}, nil
	}

	q := `SELECT document_id, document_name, chunk_index, total_chunks, content, embedding FROM chunks`
	args := make([]any, 0, len(docIDs))
	if docIDs != nil {
		q += " WHERE document_id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(docIDs)), ",") + ")"
		for _, id := range docIDs {
			args = append(args, id)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	type scored struct {
		result   domain.SearchResult
		distance float64
	}
	var candidates []scored
	for rows.Next() {
		var r domain.SearchResult
		var blob []byte
		if err := rows.Scan(&r.Metadata.DocumentID, &r.Metadata.DocumentName, &r.Metadata.ChunkIndex,
			&r.Metadata.TotalChunks, &r.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		vec := bytesToFloat32Slice(blob)
		if err := embedding.MatchDimensions(query, vec); err != nil {
			return nil, err
		}
		candidates = append(candidates, scored{
			result:   r,
			distance: embedding.CosineDistance(query, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]domain.SearchResult, len(candidates))
	for i, c := range candidates {
		d := c.distance
		results[i] = c.result
		results[i].Distance = &d
	}
	return results, nil
}

// Close is a no-op; the owning Store closes the database.
func (s *chunkStore) Close() error {
	return nil
}
