package driving

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// StatsService computes lexical statistics across documents.
type StatsService interface {
	// CompareDocuments returns themes, pairwise similarity, shared passages
	// and word frequencies for the given documents.
	CompareDocuments(ctx context.Context, docIDs []string) (*domain.TextComparison, error)
}
