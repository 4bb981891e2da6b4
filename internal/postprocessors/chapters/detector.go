// Package chapters detects chapter boundaries in extracted document text.
//
// Detection is lexical. Captured text is first cleaned of reader artifacts
// (progress percentages, "minutes left in chapter" lines), then each line is
// offered to an ordered list of matchers. The first matcher that accepts a
// line records a chapter start there; lines a match consumed as its marker
// or title are never recorded again.
package chapters

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Detector implements the interface.
var _ driven.ChapterDetector = (*Detector)(nil)

// DefaultLookahead is how many lines after a heading are searched for its marker or title.
const DefaultLookahead = 3

// DefaultKeywords are the front and back matter headings treated as chapters.
var DefaultKeywords = []string{
	"INTRODUCTION", "APPENDIX", "PREFACE", "PROLOGUE",
	"EPILOGUE", "CONCLUSION", "FOREWORD", "AFTERWORD",
}

var (
	percentLine     = regexp.MustCompile(`(?m)^\d+%\s*$`)
	minutesLeftLine = regexp.MustCompile(`(?m)^\d+ minutes? left in chapter.*$`)
)

// CleanArtifacts removes reader progress lines that interleave with headings.
// The lines are blanked, not removed, so the surrounding layout is kept.
func CleanArtifacts(text string) string {
	text = percentLine.ReplaceAllString(text, "")
	return minutesLeftLine.ReplaceAllString(text, "")
}

// Match is a chapter start accepted by a Matcher.
type Match struct {
	// Title is the chapter heading.
	Title string

	// Number is the chapter label ("7", "PREFACE").
	Number string

	// Claims lists other line indexes the match consumed, such as the
	// marker or title line. They are skipped by later matchers.
	Claims []int
}

// Lines is the line view matchers work on.
type Lines struct {
	raw       []string
	lookahead int
}

// Len returns the number of lines.
func (l *Lines) Len() int {
	return len(l.raw)
}

// At returns line i with surrounding whitespace removed.
func (l *Lines) At(i int) string {
	return strings.TrimSpace(l.raw[i])
}

// NextNonEmpty returns the first non-blank line within the lookahead window after i.
func (l *Lines) NextNonEmpty(i int) (int, string, bool) {
	limit := min(i+1+l.lookahead, len(l.raw))
	for j := i + 1; j < limit; j++ {
		if s := strings.TrimSpace(l.raw[j]); s != "" {
			return j, s, true
		}
	}
	return -1, "", false
}

// Matcher inspects non-blank line i and reports a chapter start.
type Matcher func(lines *Lines, i int) (Match, bool)

// Detector finds chapter spans.
type Detector struct {
	matchers   []Matcher
	custom     bool
	lookahead  int
	digitFixes map[string]string
	keywords   []string
}

// Option configures a Detector.
type Option func(*Detector)

// WithDigitFixes sets the table of recognition artifacts that stand for a
// chapter number, e.g. "s" for "5". Keys are compared case-insensitively.
// An empty table disables the substitution.
func WithDigitFixes(fixes map[string]string) Option {
	return func(d *Detector) {
		d.digitFixes = make(map[string]string, len(fixes))
		for k, v := range fixes {
			d.digitFixes[strings.ToLower(k)] = v
		}
	}
}

// WithKeywords replaces the front and back matter keywords.
func WithKeywords(keywords ...string) Option {
	return func(d *Detector) {
		d.keywords = keywords
	}
}

// WithLookahead sets how many lines after a heading are searched.
func WithLookahead(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.lookahead = n
		}
	}
}

// WithMatchers replaces the matcher cascade. Matchers run in the given order.
func WithMatchers(matchers ...Matcher) Option {
	return func(d *Detector) {
		d.matchers = matchers
		d.custom = true
	}
}

// New creates a Detector with the default cascade:
// banner + marker, "Chapter N", then standalone keyword.
func New(opts ...Option) *Detector {
	d := &Detector{
		lookahead:  DefaultLookahead,
		digitFixes: domain.DefaultDigitFixes(),
		keywords:   DefaultKeywords,
	}

	for _, opt := range opts {
		opt(d)
	}

	if !d.custom {
		d.matchers = DefaultMatchers(d.keywords, d.digitFixes)
	}

	return d
}

// DefaultMatchers returns the built-in cascade in priority order.
func DefaultMatchers(keywords []string, digitFixes map[string]string) []Matcher {
	return []Matcher{
		BannerMatcher(keywords, digitFixes),
		NumberedMatcher(),
		KeywordMatcher(keywords),
	}
}

type start struct {
	line   int
	title  string
	number string
}

// Detect returns the chapter spans of text, or an empty slice when no
// boundary is found. Offsets refer to CleanArtifacts(text).
func (d *Detector) Detect(text string) []domain.ChapterSpan {
	cleaned := CleanArtifacts(text)
	lines := &Lines{raw: strings.Split(cleaned, "\n"), lookahead: d.lookahead}

	claimed := make(map[int]bool)
	var starts []start

	for i := 0; i < lines.Len(); i++ {
		if claimed[i] || lines.At(i) == "" {
			continue
		}
		for _, match := range d.matchers {
			m, ok := match(lines, i)
			if !ok {
				continue
			}
			starts = append(starts, start{line: i, title: m.Title, number: m.Number})
			claimed[i] = true
			for _, c := range m.Claims {
				claimed[c] = true
			}
			break
		}
	}

	if len(starts) == 0 {
		return []domain.ChapterSpan{}
	}

	offsets := make([]int, lines.Len())
	offset := 0
	for i, line := range lines.raw {
		offsets[i] = offset
		offset += utf8.RuneCountInString(line) + 1
	}
	total := utf8.RuneCountInString(cleaned)

	spans := make([]domain.ChapterSpan, len(starts))
	for idx, s := range starts {
		end := total
		if idx+1 < len(starts) {
			end = offsets[starts[idx+1].line]
		}
		spans[idx] = domain.ChapterSpan{
			Index:     idx,
			Number:    s.number,
			Title:     s.title,
			StartChar: offsets[s.line],
			EndChar:   end,
			CharCount: end - offsets[s.line],
		}
	}

	return spans
}

// ChapterText returns the text of span within the cleaned form of text.
func (d *Detector) ChapterText(text string, span domain.ChapterSpan) string {
	return ChapterText(text, span)
}

// ChapterText returns the text of span within the cleaned form of text.
// Out-of-range spans yield "".
func ChapterText(text string, span domain.ChapterSpan) string {
	runes := []rune(CleanArtifacts(text))
	if span.StartChar < 0 || span.EndChar > len(runes) || span.StartChar >= span.EndChar {
		return ""
	}
	return string(runes[span.StartChar:span.EndChar])
}
