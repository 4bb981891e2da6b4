// Package list renders search hits as a scrolling list of excerpt cards.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// cardRows is the height of one rendered hit: heading, preview, blank.
const cardRows = 3

// ResultList keeps the hits of the last search and the highlighted one.
type ResultList struct {
	styles   *styles.Styles
	results  []domain.SearchResult
	selected int
	width    int
	height   int
}

// NewResultList creates an empty list.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

// SetResults replaces the hits and highlights the first.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

func (r *ResultList) Results() []domain.SearchResult { return r.results }
func (r *ResultList) Count() int                      { return len(r.results) }
func (r *ResultList) IsEmpty() bool                   { return len(r.results) == 0 }
func (r *ResultList) Selected() int                   { return r.selected }

// SetSelected highlights hit i. Out of range positions are ignored.
func (r *ResultList) SetSelected(i int) {
	if i >= 0 && i < len(r.results) {
		r.selected = i
	}
}

// SelectedResult returns the highlighted hit, or nil when the list is empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

func (r *ResultList) MoveUp()   { r.SetSelected(r.selected - 1) }
func (r *ResultList) MoveDown() { r.SetSelected(r.selected + 1) }

// SetDimensions sets the area the list may draw in.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

func (r *ResultList) Width() int  { return r.width }
func (r *ResultList) Height() int { return r.height }

// View renders the cards that fit, keeping the highlighted one visible.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))))
	b.WriteString("\n\n")

	first, last := window(r.selected, max((r.height-2)/cardRows, 1), len(r.results))
	for i := first; i < last; i++ {
		b.WriteString(r.card(i))
		if i < last-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// window returns the half-open range of n items that shows sel within size slots.
func window(sel, size, n int) (int, int) {
	first := max(sel-size+1, 0)
	return first, min(first+size, n)
}

func (r *ResultList) card(i int) string {
	hit := r.results[i]
	meta := hit.Metadata

	name := meta.DocumentName
	if name == "" {
		name = "(Untitled)"
	}
	score := "-"
	if hit.Distance != nil {
		score = fmt.Sprintf("%.3f", *hit.Distance)
	}
	where := fmt.Sprintf("chunk %d/%d", meta.ChunkIndex+1, meta.TotalChunks)

	name = truncate(name, max(r.width-len(where)-len(score)-10, 10))
	var heading string
	if i == r.selected {
		heading = r.styles.Selected.Render("> "+name) + "  " + r.styles.Subtitle.Render(where) + "  " + score
	} else {
		heading = "  " + r.styles.Normal.Render(name) + "  " + r.styles.Muted.Render(where+"  "+score)
	}

	preview := truncate(strings.Join(strings.Fields(hit.Content), " "), max(r.width-6, 20))
	return heading + "\n" + r.styles.Muted.Render("    "+preview)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
