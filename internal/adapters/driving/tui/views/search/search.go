// Package search is the semantic search screen: a query line over a list of
// matching excerpts.
package search

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// searchTopK is how many chunks an interactive search returns.
const searchTopK = 10

// chrome is the number of rows taken by everything but the result list.
const chrome = 8

type mode int

const (
	typing mode = iota
	browsing
)

// View is the search screen.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	list      *list.ResultList
	statusbar *status.Bar

	indexService driving.IndexService
	ctx          context.Context
	scope        []string
	topK         int

	mode   mode
	err    error
	width  int
	height int
	ready  bool
}

// NewView creates a search screen backed by indexService.
func NewView(s *styles.Styles, km *keymap.KeyMap, indexService driving.IndexService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewSearchInput(s),
		list:         list.NewResultList(s),
		statusbar:    status.NewBar(s, km, keymap.SearchInput),
		indexService: indexService,
		ctx:          context.Background(),
		topK:         searchTopK,
		width:        80,
		height:       24,
	}
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the query line.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search screen.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		}
		if v.mode == typing {
			return v.updateTyping(msg)
		}
		return v.updateBrowsing(msg)
	case messages.SearchCompleted:
		v.showResults(msg)
		return v, nil
	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) updateTyping(msg tea.KeyMsg) (*View, tea.Cmd) {
	// Arrows only: j and k are letters while typing.
	switch {
	case msg.Type == tea.KeyUp:
		v.input.Prev()
		return v, nil
	case msg.Type == tea.KeyDown:
		v.input.Next()
		return v, nil
	case !keymap.Matches(msg.String(), v.keymap.Submit):
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	query := v.input.Value()
	if query == "" {
		return v, nil
	}
	v.input.Remember(query)
	v.browse()
	v.statusbar.Busy(status.StateSearching)
	return v, v.search(query)
}

func (v *View) updateBrowsing(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(k, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(k, v.keymap.NewSearch):
		v.edit()
		v.input.SetValue("")
	case keymap.Matches(k, v.keymap.Open):
		return v, v.open()
	}
	return v, nil
}

// open jumps to the document behind the selected excerpt.
func (v *View) open() tea.Cmd {
	r := v.list.SelectedResult()
	if r == nil {
		return nil
	}
	sel := messages.DocumentSelected{
		Document: domain.DocumentSummary{ID: r.Metadata.DocumentID, Name: r.Metadata.DocumentName},
		Excerpt:  r.Content,
		From:     messages.ViewSearch,
	}
	return func() tea.Msg { return sel }
}

func (v *View) search(query string) tea.Cmd {
	svc, ctx := v.indexService, v.ctx
	opts := domain.SearchOptions{DocIDs: v.scope, TopK: v.topK}
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoIndexService}
		}
		results, err := svc.Search(ctx, query, opts)
		return messages.SearchCompleted{Query: query, Results: results, Err: err}
	}
}

func (v *View) showResults(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return
	}
	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.Done(len(msg.Results), "excerpts")
	v.browse()
}

func (v *View) browse() {
	v.mode = browsing
	v.input.Blur()
	v.statusbar.SetHints(keymap.SearchResults)
}

// edit returns focus to the query line.
func (v *View) edit() {
	v.mode = typing
	v.input.Focus()
	v.statusbar.SetHints(keymap.SearchInput)
}

// View renders the screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	rows := []string{v.styles.Title.Render("Search"), "", v.input.View(), ""}
	if v.err != nil {
		rows = append(rows, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	rows = append(rows, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// SetDimensions resizes the screen.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-chrome)
	v.statusbar.SetWidth(width)
}

func (v *View) Width() int  { return v.width }
func (v *View) Height() int { return v.height }
func (v *View) Ready() bool { return v.ready }

// Query returns the text on the query line.
func (v *View) Query() string { return v.input.Value() }

// SetQuery replaces the text on the query line.
func (v *View) SetQuery(query string) { v.input.SetValue(query) }

// Results returns the excerpts from the last search.
func (v *View) Results() []domain.SearchResult { return v.list.Results() }

// SelectedIndex returns the position of the highlighted excerpt.
func (v *View) SelectedIndex() int { return v.list.Selected() }

// SelectedResult returns the highlighted excerpt, or nil.
func (v *View) SelectedResult() *domain.SearchResult { return v.list.SelectedResult() }

// Err returns the last search error.
func (v *View) Err() error { return v.err }

// ClearError drops the last search error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.Reset()
}

// Reset returns to an empty query with no results.
func (v *View) Reset() {
	v.edit()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.ClearError()
}

// InputFocused reports whether keys go to the query line.
func (v *View) InputFocused() bool { return v.mode == typing }

// SetScope restricts searches to docIDs. Nil searches every document.
func (v *View) SetScope(docIDs []string) {
	v.scope = docIDs
	v.statusbar.SetScope(len(docIDs))
}

// SetTopK sets how many results a search returns.
func (v *View) SetTopK(k int) {
	if k > 0 {
		v.topK = k
	}
}
