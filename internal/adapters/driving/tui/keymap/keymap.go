// Package keymap holds the key bindings of the TUI and the hint sets the
// status bar shows for each screen.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// Context names a screen state with its own hint set.
type Context int

const (
	// Typing a search query.
	SearchInput Context = iota
	// Browsing search results.
	SearchResults
	// Typing a question in chat.
	Chat
	// Browsing the document list.
	Documents
	// Reading a document.
	Reader
	// Choosing from the main menu.
	Menu
)

// KeyMap defines the bindings shared by the views.
type KeyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Submit sends the typed query or question.
	Submit key.Binding

	// Open shows the document behind a result.
	Open key.Binding

	// Actions lists what can be done with the selected document.
	Actions key.Binding

	// Reload fetches the document list again.
	Reload key.Binding

	// Confirm accepts a destructive action.
	Confirm key.Binding

	// NewSearch clears the query and returns to typing.
	NewSearch key.Binding

	// ToggleScope adds or removes a document from the scope.
	ToggleScope key.Binding

	// ClearScope widens the scope to every document.
	ClearScope key.Binding

	// ClearTranscript empties the chat history.
	ClearTranscript key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:            key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Back:            key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Up:              key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:            key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:          key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:        key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Submit:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Open:            key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Actions:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "actions")),
		Reload:          key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Confirm:         key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		NewSearch:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new search")),
		ToggleScope:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "scope")),
		ClearScope:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all documents")),
		ClearTranscript: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
	}
}

// Hints returns the bindings worth showing in context c.
func (k *KeyMap) Hints(c Context) []key.Binding {
	switch c {
	case SearchResults:
		return []key.Binding{k.Up, k.Down, k.Open, k.NewSearch, k.Back}
	case Chat:
		return []key.Binding{k.Submit, k.PageUp, k.ClearTranscript, k.Back}
	case Documents:
		return []key.Binding{k.Up, k.Down, k.ToggleScope, k.ClearScope, k.Actions, k.Reload, k.Back}
	case Reader:
		return []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Back}
	case SearchInput:
		return []key.Binding{k.Submit, k.Back, k.Quit}
	case Menu:
		return []key.Binding{k.Up, k.Down, k.Open, k.Quit}
	}
	return []key.Binding{k.Back, k.Quit}
}

// Matches reports whether keyStr triggers binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
