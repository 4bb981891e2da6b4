package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/assembler"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions from retrieved excerpts.
type ChatService struct {
	index     driving.IndexService
	llm       driven.LLMService
	assembler *assembler.Assembler
	docs      driven.DocumentStore
	retrieval domain.RetrievalSettings
	llmErr    error
}

// NewChatService creates a new chat service.
// The llm parameter is optional; without it every question that
// retrieves excerpts fails with domain.ErrLLMUnavailable.
func NewChatService(
	index driving.IndexService,
	llm driven.LLMService,
	asm *assembler.Assembler,
	docs driven.DocumentStore,
	retrieval domain.RetrievalSettings,
) *ChatService {
	if asm == nil {
		asm = assembler.New()
	}
	return &ChatService{
		index:     index,
		llm:       llm,
		assembler: asm,
		docs:      docs,
		retrieval: retrieval,
	}
}

// Ask retrieves excerpts and answers from them. When nothing is retrieved
// the fixed no-match answer is returned without calling the backend.
func (s *ChatService) Ask(ctx context.Context, question string, docIDs []string, topK int) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = s.retrieval.ChatTopK
	}

	logger.Section("Ask")
	logger.Debug("Question: %q, scope: %v, top_k: %d", question, docIDs, topK)

	results, err := s.index.Search(ctx, question, domain.SearchOptions{DocIDs: docIDs, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if len(results) == 0 {
		logger.Debug("No excerpts retrieved")
		return &domain.Answer{Text: domain.NoMatchAnswer, Sources: []domain.SearchResult{}}, nil
	}

	prompt, err := s.assembler.RAG(question, results)
	if err != nil {
		return nil, err
	}

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{Text: text, Sources: results}, nil
}

// Compare retrieves up to topK excerpts from each document and asks for
// an attributed comparison. Duplicate IDs are compared once.
func (s *ChatService) Compare(
	ctx context.Context, question string, docIDs []string, topK int,
) (*domain.Comparison, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	docIDs = uniqueIDs(docIDs)
	if len(docIDs) < 2 {
		return nil, fmt.Errorf("%w: comparison needs at least two documents, got %d",
			domain.ErrInvalidInput, len(docIDs))
	}
	if topK <= 0 {
		topK = s.retrieval.CompareTopK
	}

	logger.Section("Compare")
	logger.Debug("Question: %q, documents: %v, top_k: %d", question, docIDs, topK)

	groups := make([]domain.DocumentExcerpts, len(docIDs))
	retrieved := 0
	for i, id := range docIDs {
		results, err := s.index.Search(ctx, question, domain.SearchOptions{DocIDs: []string{id}, TopK: topK})
		if err != nil {
			return nil, fmt.Errorf("retrieve from %s: %w", id, err)
		}
		name, err := s.documentName(ctx, id, results)
		if err != nil {
			return nil, err
		}
		groups[i] = domain.DocumentExcerpts{DocumentID: id, DocumentName: name, Results: results}
		retrieved += len(results)
		logger.Debug("%s: %d excerpts", name, len(results))
	}

	if retrieved == 0 {
		return &domain.Comparison{Text: domain.NoMatchAnswer, Documents: groups}, nil
	}

	prompt, err := s.assembler.Comparison(question, groups)
	if err != nil {
		return nil, err
	}

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &domain.Comparison{Text: text, Documents: groups}, nil
}

// SetLLMError records why no backend could be built, so answers that
// need one report the cause alongside domain.ErrLLMUnavailable.
func (s *ChatService) SetLLMError(err error) {
	s.llmErr = err
}

func (s *ChatService) generate(ctx context.Context, prompt assembler.Prompt) (string, error) {
	if s.llm == nil {
		return "", llmUnavailable(s.llmErr)
	}
	logger.Debug("Generating with %s (%s)", s.llm.Provider(), s.llm.ModelName())
	text, err := s.llm.Generate(ctx, prompt.User, prompt.System)
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return "", err
	}
	return text, nil
}

// documentName prefers the catalogue name, then the indexed name, then the ID.
func (s *ChatService) documentName(ctx context.Context, id string, results []domain.SearchResult) (string, error) {
	if s.docs != nil {
		doc, err := s.docs.GetDocument(ctx, id)
		switch {
		case err == nil:
			return doc.Name, nil
		case !errors.Is(err, domain.ErrNotFound):
			return "", err
		}
	}
	if len(results) > 0 && results[0].Metadata.DocumentName != "" {
		return results[0].Metadata.DocumentName, nil
	}
	return id, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func llmUnavailable(cause error) error {
	if cause == nil {
		return domain.ErrLLMUnavailable
	}
	return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, cause)
}
