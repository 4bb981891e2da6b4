package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/postprocessors/textstats"
)

// Ensure StatsService implements the interface.
var _ driving.StatsService = (*StatsService)(nil)

// StatsService computes lexical statistics over stored documents.
type StatsService struct {
	docs driven.DocumentStore
}

// NewStatsService creates a new stats service.
func NewStatsService(docs driven.DocumentStore) *StatsService {
	return &StatsService{docs: docs}
}

// CompareDocuments loads the documents and compares their full text.
// Documents sharing a display name are told apart by a numeric suffix.
func (s *StatsService) CompareDocuments(ctx context.Context, docIDs []string) (*domain.TextComparison, error) {
	ids := uniqueIDs(docIDs)
	if len(ids) < 2 {
		return nil, fmt.Errorf("%w: select at least two documents to compare", domain.ErrInvalidInput)
	}

	texts := make([]textstats.Text, 0, len(ids))
	used := make(map[string]int, len(ids))
	for _, id := range ids {
		doc, err := s.docs.GetDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", id, err)
		}
		name := doc.Name
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}
		texts = append(texts, textstats.Text{Name: name, Content: doc.Content})
	}

	return textstats.Compare(texts), nil
}
