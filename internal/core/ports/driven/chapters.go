package driven

import "github.com/custodia-labs/marginalia/internal/core/domain"

// ChapterDetector finds chapter boundaries in document text.
type ChapterDetector interface {
	// Detect returns contiguous spans covering the text from the first
	// boundary to the end, or an empty slice when none is found.
	Detect(text string) []domain.ChapterSpan

	// ChapterText returns the text of span, cut from the same normalised
	// form of text that Detect measured offsets against.
	ChapterText(text string, span domain.ChapterSpan) string
}
