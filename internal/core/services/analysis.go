package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/assembler"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// AnalysisService runs whole-chapter analysis over cached chapter spans.
type AnalysisService struct {
	docs      driven.DocumentStore
	cache     driven.ChapterCache
	detector  driven.ChapterDetector
	llm       driven.LLMService
	assembler *assembler.Assembler
	llmErr    error
}

// NewAnalysisService creates a new analysis service.
// The llm parameter is optional; chapter listing works without it.
func NewAnalysisService(
	docs driven.DocumentStore,
	cache driven.ChapterCache,
	detector driven.ChapterDetector,
	llm driven.LLMService,
	asm *assembler.Assembler,
) *AnalysisService {
	if asm == nil {
		asm = assembler.New()
	}
	return &AnalysisService{
		docs:      docs,
		cache:     cache,
		detector:  detector,
		llm:       llm,
		assembler: asm,
	}
}

// SetLLMError records why no backend could be built.
func (s *AnalysisService) SetLLMError(err error) {
	s.llmErr = err
}

// Chapters returns the cached spans of a document, detecting them on first use.
func (s *AnalysisService) Chapters(ctx context.Context, docID string) ([]domain.ChapterSpan, error) {
	spans, ok, err := s.cache.GetChapterMetadata(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("read chapter cache: %w", err)
	}
	if ok {
		return spans, nil
	}
	return s.DetectChapters(ctx, docID)
}

// DetectChapters reruns detection and replaces the cache.
func (s *AnalysisService) DetectChapters(ctx context.Context, docID string) ([]domain.ChapterSpan, error) {
	doc, err := s.docs.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	spans := s.detector.Detect(doc.Content)
	logger.Debug("Detected %d chapters in %s", len(spans), doc.Name)

	if err := s.cache.SaveChapterMetadata(ctx, docID, spans); err != nil {
		return nil, fmt.Errorf("write chapter cache: %w", err)
	}
	return spans, nil
}

// ChapterText returns the text of one chapter.
func (s *AnalysisService) ChapterText(ctx context.Context, docID string, index int) (string, error) {
	doc, spans, err := s.load(ctx, docID)
	if err != nil {
		return "", err
	}
	span, err := chapterAt(spans, index)
	if err != nil {
		return "", err
	}
	return s.detector.ChapterText(doc.Content, span), nil
}

// SummariseChapters summarises every chapter in order.
func (s *AnalysisService) SummariseChapters(
	ctx context.Context, docID string, progress domain.ProgressFunc,
) ([]domain.ChapterOutcome, error) {
	doc, spans, err := s.loadForBatch(ctx, docID)
	if err != nil {
		return nil, err
	}

	logger.Section("Chapter Summaries")
	outcomes, err := s.eachChapter(ctx, doc, spans, len(spans), progress, "Summarising", s.assembler.ChapterSummary)
	if err != nil {
		return outcomes, err
	}

	report(progress, len(spans), len(spans), "All summaries complete")
	return outcomes, nil
}

// BuildTimeline extracts events from every chapter, then merges them.
// A failed merge is reported in Timeline.MergeError with the extractions kept.
func (s *AnalysisService) BuildTimeline(
	ctx context.Context, docID string, progress domain.ProgressFunc,
) (*domain.Timeline, error) {
	doc, spans, err := s.loadForBatch(ctx, docID)
	if err != nil {
		return nil, err
	}

	logger.Section("Timeline")
	total := len(spans) + 1
	outcomes, err := s.eachChapter(ctx, doc, spans, total, progress, "Extracting events from", s.assembler.ChapterEvents)
	timeline := &domain.Timeline{Events: outcomes}
	if err != nil {
		return timeline, err
	}

	var events []assembler.ChapterEvents
	for _, o := range outcomes {
		if o.Succeeded() {
			events = append(events, assembler.ChapterEvents{Label: o.Label, Events: o.Output})
		}
	}

	if len(events) == 0 {
		timeline.MergeError = "no chapter produced events"
		report(progress, total, total, "Nothing to merge")
		return timeline, nil
	}

	report(progress, len(spans), total, "Merging into unified timeline")

	prompt, err := s.assembler.TimelineMerge(events, doc.Name)
	if err != nil {
		return timeline, err
	}
	merged, err := s.llm.Generate(ctx, prompt.User, prompt.System)
	switch {
	case ctx.Err() != nil:
		return timeline, ctx.Err()
	case err != nil:
		logger.Warn("Timeline merge failed: %v", err)
		timeline.MergeError = err.Error()
	default:
		timeline.Merged = merged
	}

	report(progress, total, total, "Timeline complete")
	return timeline, nil
}

// AskChapter answers a question from the full text of one chapter.
func (s *AnalysisService) AskChapter(ctx context.Context, docID string, index int, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return "", llmUnavailable(s.llmErr)
	}

	doc, spans, err := s.load(ctx, docID)
	if err != nil {
		return "", err
	}
	span, err := chapterAt(spans, index)
	if err != nil {
		return "", err
	}

	text := s.detector.ChapterText(doc.Content, span)
	prompt, err := s.assembler.ChapterQuestion(text, span.Label(), doc.Name, question)
	if err != nil {
		return "", err
	}
	return s.llm.Generate(ctx, prompt.User, prompt.System)
}

type chapterPromptFunc func(chapterText, label, docName string) (assembler.Prompt, error)

// eachChapter runs one generation per chapter, in order. Failures become
// placeholder outcomes; cancellation stops the loop and returns what was done.
func (s *AnalysisService) eachChapter(
	ctx context.Context,
	doc *domain.Document,
	spans []domain.ChapterSpan,
	total int,
	progress domain.ProgressFunc,
	verb string,
	build chapterPromptFunc,
) ([]domain.ChapterOutcome, error) {
	outcomes := make([]domain.ChapterOutcome, 0, len(spans))

	for i, span := range spans {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		label := span.Label()
		report(progress, i, total, fmt.Sprintf("%s %s", verb, label))

		outcome := domain.ChapterOutcome{Chapter: span, Label: label}
		text := s.detector.ChapterText(doc.Content, span)

		if strings.TrimSpace(text) == "" {
			outcome.Skipped = true
			outcome.Output = fmt.Sprintf("[%s has no text]", label)
			outcomes = append(outcomes, outcome)
			continue
		}

		prompt, err := build(text, label, doc.Name)
		if err == nil {
			outcome.Output, err = s.llm.Generate(ctx, prompt.User, prompt.System)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return outcomes, ctxErr
			}
			logger.Warn("%s failed: %v", label, err)
			outcome.Failed = true
			outcome.Error = err.Error()
			outcome.Output = fmt.Sprintf("[%s could not be processed: %v]", label, err)
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (s *AnalysisService) load(ctx context.Context, docID string) (*domain.Document, []domain.ChapterSpan, error) {
	spans, err := s.Chapters(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.docs.GetDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	return doc, spans, nil
}

func (s *AnalysisService) loadForBatch(
	ctx context.Context, docID string,
) (*domain.Document, []domain.ChapterSpan, error) {
	if s.llm == nil {
		return nil, nil, llmUnavailable(s.llmErr)
	}
	doc, spans, err := s.load(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if len(spans) == 0 {
		return nil, nil, domain.ErrNoChapters
	}
	return doc, spans, nil
}

func chapterAt(spans []domain.ChapterSpan, index int) (domain.ChapterSpan, error) {
	if len(spans) == 0 {
		return domain.ChapterSpan{}, domain.ErrNoChapters
	}
	if index < 0 || index >= len(spans) {
		return domain.ChapterSpan{}, fmt.Errorf("%w: chapter %d (document has %d)",
			domain.ErrNotFound, index, len(spans))
	}
	return spans[index], nil
}

func report(progress domain.ProgressFunc, step, total int, message string) {
	if progress != nil {
		progress(domain.Progress{Step: step, Total: total, Message: message})
	}
}
