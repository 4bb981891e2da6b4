package chapters

import (
	"regexp"
	"strings"
)

var (
	bannerLine   = regexp.MustCompile(`^[A-Z][A-Z\s]{3,}$`)
	digitsLine   = regexp.MustCompile(`^\d+$`)
	numberedLine = regexp.MustCompile(`^(?:CHAPTER|Chapter)\s+(\d+)`)
)

// keywordPattern builds a case-insensitive alternation of keywords.
// With whole set, the line must be the keyword alone.
func keywordPattern(keywords []string, whole bool) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	expr := `(?i)^(` + strings.Join(quoted, "|") + `)`
	if whole {
		expr += `\s*$`
	}
	return regexp.MustCompile(expr)
}

// BannerMatcher accepts an all-caps running header longer than five
// characters when the next non-blank line is a chapter marker: digits,
// a known digit artifact, or a front/back matter keyword. For a keyword
// marker the keyword line is both title and number.
func BannerMatcher(keywords []string, digitFixes map[string]string) Matcher {
	keywordPrefix := keywordPattern(keywords, false)

	return func(lines *Lines, i int) (Match, bool) {
		line := lines.At(i)
		if len(line) <= 5 || !bannerLine.MatchString(line) {
			return Match{}, false
		}

		j, next, ok := lines.NextNonEmpty(i)
		if !ok {
			return Match{}, false
		}

		switch {
		case digitsLine.MatchString(next):
			return Match{Title: line, Number: next, Claims: []int{j}}, true
		case digitFixes[strings.ToLower(next)] != "":
			return Match{Title: line, Number: digitFixes[strings.ToLower(next)], Claims: []int{j}}, true
		case len(keywords) > 0 && keywordPrefix.MatchString(next):
			return Match{Title: next, Number: next, Claims: []int{j}}, true
		}
		return Match{}, false
	}
}

// NumberedMatcher accepts "CHAPTER N" and "Chapter N" lines. The title is
// the next non-blank line, or "Chapter N" when none follows closely.
func NumberedMatcher() Matcher {
	return func(lines *Lines, i int) (Match, bool) {
		m := numberedLine.FindStringSubmatch(lines.At(i))
		if m == nil {
			return Match{}, false
		}

		number := m[1]
		if _, title, ok := lines.NextNonEmpty(i); ok {
			return Match{Title: title, Number: number}, true
		}
		return Match{Title: "Chapter " + number, Number: number}, true
	}
}

// KeywordMatcher accepts a line consisting of a front/back matter keyword.
func KeywordMatcher(keywords []string) Matcher {
	if len(keywords) == 0 {
		return func(*Lines, int) (Match, bool) { return Match{}, false }
	}
	standalone := keywordPattern(keywords, true)

	return func(lines *Lines, i int) (Match, bool) {
		line := lines.At(i)
		if !standalone.MatchString(line) {
			return Match{}, false
		}
		return Match{Title: line, Number: line}, true
	}
}
