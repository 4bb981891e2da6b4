package driving

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// ChatService answers questions grounded in retrieved excerpts.
type ChatService interface {
	// Ask retrieves up to topK chunks from docIDs (nil for all documents)
	// and answers the question from them.
	Ask(ctx context.Context, question string, docIDs []string, topK int) (*domain.Answer, error)

	// Compare retrieves up to topK chunks from each document and asks for
	// a per-document attributed comparison. At least two documents are required.
	Compare(ctx context.Context, question string, docIDs []string, topK int) (*domain.Comparison, error)
}
