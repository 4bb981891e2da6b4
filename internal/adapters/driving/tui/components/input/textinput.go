// Package input provides the labelled single-line fields used by the
// search and chat views.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
)

const (
	defaultWidth = 50
	minWidth     = 20
	// labelRoom is what the label and the field border take from the width.
	labelRoom = 10
	// historySize bounds how many submissions a field remembers.
	historySize = 50
)

// Field is a focused text input with a label and a recall history.
// ctrl+p and ctrl+n step through earlier submissions.
type Field struct {
	model  textinput.Model
	styles *styles.Styles
	label  string
	width  int

	history []string
	// cursor indexes history while recalling; len(history) means the draft.
	cursor int
	draft  string
}

// NewSearchInput creates the search query field.
func NewSearchInput(s *styles.Styles) *Field {
	return newField(s, "Search: ", "words or a phrase...", 256)
}

// NewQuestionInput creates the chat question field.
func NewQuestionInput(s *styles.Styles) *Field {
	return newField(s, "Ask: ", "a question about your documents...", 1000)
}

func newField(s *styles.Styles, label, placeholder string, limit int) *Field {
	if s == nil {
		s = styles.DefaultStyles()
	}
	m := textinput.New()
	m.Placeholder = placeholder
	m.CharLimit = limit
	m.Width = defaultWidth
	m.Focus()
	return &Field{model: m, styles: s, label: label, width: defaultWidth}
}

// Init starts the cursor blinking.
func (f *Field) Init() tea.Cmd {
	return textinput.Blink
}

// Update edits the value, or recalls history on ctrl+p and ctrl+n.
func (f *Field) Update(msg tea.Msg) (*Field, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && f.model.Focused() {
		switch key.String() {
		case "ctrl+p":
			f.Prev()
			return f, nil
		case "ctrl+n":
			f.Next()
			return f, nil
		}
	}
	var cmd tea.Cmd
	f.model, cmd = f.model.Update(msg)
	return f, cmd
}

// View renders the label beside the field.
func (f *Field) View() string {
	//nolint:misspell // lipgloss spells it Center
	return lipgloss.JoinHorizontal(lipgloss.Center,
		f.styles.Title.Render(f.label),
		f.styles.InputField.Render(f.model.View()))
}

// Remember records a submitted value and ends any recall in progress.
// Blank values and repeats of the latest entry are skipped.
func (f *Field) Remember(value string) {
	if value != "" && (len(f.history) == 0 || f.history[len(f.history)-1] != value) {
		f.history = append(f.history, value)
		if len(f.history) > historySize {
			f.history = f.history[len(f.history)-historySize:]
		}
	}
	f.cursor = len(f.history)
	f.draft = ""
}

// History returns remembered submissions, oldest first.
func (f *Field) History() []string {
	return append([]string(nil), f.history...)
}

// Prev replaces the value with the previous submission. The text typed
// before recall started is kept as the draft.
func (f *Field) Prev() {
	if f.cursor == 0 || len(f.history) == 0 {
		return
	}
	if f.cursor >= len(f.history) {
		f.cursor = len(f.history)
		f.draft = f.model.Value()
	}
	f.cursor--
	f.show(f.history[f.cursor])
}

// Next moves toward newer submissions and finally back to the draft.
func (f *Field) Next() {
	if f.cursor >= len(f.history) {
		return
	}
	f.cursor++
	if f.cursor == len(f.history) {
		f.show(f.draft)
		return
	}
	f.show(f.history[f.cursor])
}

func (f *Field) show(v string) {
	f.model.SetValue(v)
	f.model.CursorEnd()
}

// Value returns the current text.
func (f *Field) Value() string { return f.model.Value() }

// SetValue replaces the text.
func (f *Field) SetValue(value string) { f.model.SetValue(value) }

// Focus gives the field the keyboard.
func (f *Field) Focus() tea.Cmd { return f.model.Focus() }

// Blur releases the keyboard.
func (f *Field) Blur() { f.model.Blur() }

// Focused reports whether the field takes key presses.
func (f *Field) Focused() bool { return f.model.Focused() }

// SetWidth fits the field and its label into width columns.
func (f *Field) SetWidth(width int) {
	f.width = width
	f.model.Width = max(width-labelRoom, minWidth)
}

// Width returns the width last set.
func (f *Field) Width() int { return f.width }

// Reset clears the text. History is kept.
func (f *Field) Reset() {
	f.model.Reset()
	f.cursor = len(f.history)
	f.draft = ""
}
