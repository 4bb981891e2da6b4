package driving

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// AnalysisService runs whole-chapter analysis.
// Chapter text is sent to the generation backend verbatim, without retrieval.
type AnalysisService interface {
	// Chapters returns the cached spans of a document, detecting them on first use.
	Chapters(ctx context.Context, docID string) ([]domain.ChapterSpan, error)

	// DetectChapters reruns detection and replaces the cache.
	DetectChapters(ctx context.Context, docID string) ([]domain.ChapterSpan, error)

	// ChapterText returns the text of one chapter.
	ChapterText(ctx context.Context, docID string, index int) (string, error)

	// SummariseChapters summarises every chapter in order. A chapter whose
	// generation fails gets a placeholder outcome; the batch continues.
	// Cancelling ctx stops the batch between chapters.
	SummariseChapters(ctx context.Context, docID string, progress domain.ProgressFunc) ([]domain.ChapterOutcome, error)

	// BuildTimeline extracts events from every chapter, then merges them.
	BuildTimeline(ctx context.Context, docID string, progress domain.ProgressFunc) (*domain.Timeline, error)

	// AskChapter answers a question from the full text of one chapter.
	AskChapter(ctx context.Context, docID string, index int, question string) (string, error)
}
