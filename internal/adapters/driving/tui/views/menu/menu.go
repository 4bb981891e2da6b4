// Package menu is the start screen listing the other screens.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
)

// Item is one entry of the menu. Quit items end the program.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

var defaultItems = []Item{
	{Label: "Chat", Hint: "ask questions, answers cite excerpts", View: messages.ViewChat},
	{Label: "Search", Hint: "find passages by meaning", View: messages.ViewSearch},
	{Label: "Documents", Hint: "browse, read and pick the scope", View: messages.ViewDocuments},
	{Label: "Help", Hint: "keys and commands", View: messages.ViewHelp},
	{Label: "Quit", Quit: true},
}

// View is the menu screen.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []Item
	scope    []string
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items:  append([]Item(nil), defaultItems...),
		width:  80,
		height: 24,
	}
}

func (v *View) Init() tea.Cmd { return nil }

// Update moves the cursor and opens the chosen screen.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keys.Up):
			v.selected = max(v.selected-1, 0)
		case keymap.Matches(k, v.keys.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case keymap.Matches(k, v.keys.Open):
			return v, v.choose(v.items[v.selected])
		case k == "q":
			return v, tea.Quit
		}
	}
	return v, nil
}

func (v *View) choose(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Marginalia"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Ask your documents"))
	b.WriteString("\n\n")

	labelWidth := 0
	for _, it := range v.items {
		labelWidth = max(labelWidth, len(it.Label))
	}
	for i, it := range v.items {
		label := fmt.Sprintf("%-*s", labelWidth, it.Label)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if it.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(it.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Scope: " + v.scopeLabel()))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[j/k] move  [enter] open  [q] quit"))
	return b.String()
}

// SetDimensions records the terminal size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int { return v.selected }

// SetScope records the names of the documents chat is restricted to.
// An empty list means every document.
func (v *View) SetScope(names []string) {
	v.scope = names
}

func (v *View) scopeLabel() string {
	if len(v.scope) == 0 {
		return "all documents"
	}
	return strings.Join(v.scope, ", ")
}
