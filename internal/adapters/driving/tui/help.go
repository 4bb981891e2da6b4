package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
)

var helpSections = []struct {
	title string
	ctx   keymap.Context
}{
	{"Menu", keymap.Menu},
	{"Chat", keymap.Chat},
	{"Search", keymap.SearchInput},
	{"Search results", keymap.SearchResults},
	{"Documents", keymap.Documents},
	{"Reader", keymap.Reader},
}

// helpView lists the bindings of every screen, one line each.
type helpView struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model
}

func newHelpView(s *styles.Styles) *helpView {
	h := help.New()
	h.Styles.ShortKey = s.Subtitle
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted
	return &helpView{styles: s, keys: keymap.DefaultKeyMap(), help: h}
}

func (h *helpView) SetDimensions(width, _ int) { h.help.Width = width }

func (h *helpView) View() string {
	var b strings.Builder
	b.WriteString(h.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, sec := range helpSections {
		b.WriteString(h.styles.Normal.Render(sec.title))
		b.WriteString("\n  ")
		b.WriteString(h.help.ShortHelpView(h.keys.Hints(sec.ctx)))
		b.WriteString("\n\n")
	}
	b.WriteString(h.styles.Help.Render("ctrl+c quits from anywhere  •  esc back to menu"))
	return b.String()
}
