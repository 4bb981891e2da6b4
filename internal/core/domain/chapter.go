package domain

import "unicode"

// ChapterSpan is one detected chapter of a document.
//
// Offsets count runes in the artifact-cleaned text. Spans of one document
// are ordered by Index and contiguous: span i ends where span i+1 starts,
// and the last span ends at the cleaned text length.
type ChapterSpan struct {
	// Index is the position of the span, from 0.
	Index int `json:"index" yaml:"index"`

	// Number is the chapter label as found in the text ("3", "PREFACE").
	// It is never assumed to parse as an integer.
	Number string `json:"number" yaml:"number"`

	// Title is the chapter heading.
	Title string `json:"title" yaml:"title"`

	// StartChar is the first rune of the chapter.
	StartChar int `json:"start_char" yaml:"start_char"`

	// EndChar is one past the last rune of the chapter.
	EndChar int `json:"end_char" yaml:"end_char"`

	// CharCount is EndChar - StartChar.
	CharCount int `json:"char_count" yaml:"char_count"`
}

// Label returns "Chapter N" for numeric chapters and the number itself otherwise.
func (s ChapterSpan) Label() string {
	if isDigits(s.Number) {
		return "Chapter " + s.Number
	}
	return s.Number
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ChapterOutcome is the result of one generation step in a chapter batch.
type ChapterOutcome struct {
	// Chapter is the span the step ran on.
	Chapter ChapterSpan `json:"chapter" yaml:"chapter"`

	// Label is the chapter label used in prompts.
	Label string `json:"label" yaml:"label"`

	// Output is the generated text, or a placeholder when the step failed.
	Output string `json:"output" yaml:"output"`

	// Failed is true when generation failed for this chapter.
	Failed bool `json:"failed,omitempty" yaml:"failed,omitempty"`

	// Skipped is true when the chapter had no text.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Error is the failure message when Failed is true.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the step produced real output.
func (o ChapterOutcome) Succeeded() bool {
	return !o.Failed && !o.Skipped
}

// Timeline is the result of extracting events from every chapter and merging them.
type Timeline struct {
	// Events holds the per-chapter extractions in chapter order.
	Events []ChapterOutcome `json:"events" yaml:"events"`

	// Merged is the unified timeline, empty when merging failed.
	Merged string `json:"merged" yaml:"merged"`

	// MergeError is set when the merge call failed.
	MergeError string `json:"merge_error,omitempty" yaml:"merge_error,omitempty"`
}

// Progress reports one step of a long-running batch.
type Progress struct {
	// Step is the number of completed steps.
	Step int

	// Total is the number of steps in the batch.
	Total int

	// Message describes the step that is about to run or just finished.
	Message string
}

// Fraction returns the completed share in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Step) / float64(p.Total)
}

// ProgressFunc receives batch progress. It may be nil.
type ProgressFunc func(Progress)
