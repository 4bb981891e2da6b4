// Package status renders the one-line bar at the bottom of each view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
)

// State is what the owning view is doing.
type State int

const (
	StateReady State = iota
	StateSearching
	StateThinking
	StateLoading
	StateError
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "Searching..."
	case StateThinking:
		return "Thinking..."
	case StateLoading:
		return "Loading..."
	case StateError:
		return "Error"
	default:
		return "Ready"
	}
}

// Bar shows progress or the last outcome on the left, the current scope in
// the middle and key hints on the right.
type Bar struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	hints  keymap.Context

	state State
	err   string

	// count and noun describe the last finished request, e.g. "4 excerpts".
	count int
	noun  string

	// scope is the number of selected documents, 0 for all.
	scope int
	width int
}

// NewBar creates a bar showing the hints for context c.
func NewBar(s *styles.Styles, km *keymap.KeyMap, c keymap.Context) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keys: km, hints: c, width: 80}
}

// Busy marks a request in flight.
func (b *Bar) Busy(state State) {
	b.state = state
	b.err = ""
}

// Fail records a failed request.
func (b *Bar) Fail(err error) {
	b.state = StateError
	b.err = ""
	if err != nil {
		b.err = err.Error()
	}
}

// Done records a finished request that produced count items.
func (b *Bar) Done(count int, noun string) {
	b.state = StateReady
	b.err = ""
	b.count = count
	b.noun = noun
}

// Reset forgets the last outcome.
func (b *Bar) Reset() {
	b.state = StateReady
	b.err = ""
	b.count = 0
	b.noun = ""
}

// SetHints switches the hint set.
func (b *Bar) SetHints(c keymap.Context) { b.hints = c }

// SetScope records how many documents are selected. Zero means all.
func (b *Bar) SetScope(n int) { b.scope = n }

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) { b.width = width }

// State returns the current state.
func (b *Bar) State() State { return b.state }

// Err returns the message of the last failure.
func (b *Bar) Err() string { return b.err }

// View renders the bar.
func (b *Bar) View() string {
	left := b.outcome()
	mid := b.styles.Muted.Render(b.scopeLabel())
	right := b.styles.Muted.Render(b.hintLine())

	inner := b.width - b.styles.StatusBar.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if gap < 2 {
		// Hints go first when the line is too narrow.
		right = ""
		gap = max(inner-lipgloss.Width(left)-lipgloss.Width(mid), 2)
	}
	leftGap := gap / 2

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", leftGap) + mid + strings.Repeat(" ", gap-leftGap) + right,
	)
}

func (b *Bar) outcome() string {
	switch b.state {
	case StateError:
		if b.err == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.err)
	case StateSearching, StateThinking, StateLoading:
		return b.styles.Muted.Render(b.state.String())
	case StateReady:
	}
	if b.noun != "" {
		return b.styles.Normal.Render(fmt.Sprintf("%d %s", b.count, b.noun))
	}
	return b.styles.Muted.Render(b.state.String())
}

func (b *Bar) scopeLabel() string {
	switch b.scope {
	case 0:
		return "scope: all"
	case 1:
		return "scope: 1 document"
	default:
		return fmt.Sprintf("scope: %d documents", b.scope)
	}
}

func (b *Bar) hintLine() string {
	bindings := b.keys.Hints(b.hints)
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
