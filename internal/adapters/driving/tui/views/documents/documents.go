// Package documents is the library screen: it lists imported documents,
// runs per-document actions and owns the scope that chat and search use.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// ErrNoDocumentService is reported when the view has no service to call.
var ErrNoDocumentService = errors.New("document service not available")

// Action is an entry of the per-document menu.
type Action int

const (
	ActionOpen Action = iota
	ActionReindex
	ActionDelete
	ActionCancel
)

var actionLabels = [...]string{"Open", "Reindex", "Delete", "Cancel"}

func (a Action) String() string { return actionLabels[a] }

type mode int

const (
	listing mode = iota
	choosing
	// confirming waits for y before deleting.
	confirming
)

// chrome is the number of rows taken by everything but the list.
const chrome = 8

// View lists documents. Space toggles a document in or out of the scope;
// an empty scope means every document.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar
	service   driving.DocumentService
	ctx       context.Context

	documents []domain.DocumentSummary
	scope     map[string]bool
	selected  int
	offset    int
	mode      mode
	action    Action
	// notice describes the last completed action.
	notice string
	err    error

	width, height int
}

// NewView creates the view. service may be nil; every load then fails
// with ErrNoDocumentService.
func NewView(s *styles.Styles, service driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	return &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, km, keymap.Documents),
		service:   service,
		ctx:       context.Background(),
		scope:     map[string]bool{},
	}
}

// WithContext sets the context passed to service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd { return nil }

// Load moves the cursor to the top and fetches the list.
func (v *View) Load() tea.Cmd {
	v.selected, v.offset = 0, 0
	v.mode = listing
	v.notice = ""
	return v.fetch()
}

func (v *View) fetch() tea.Cmd {
	v.err = nil
	v.statusbar.Busy(status.StateLoading)
	svc, ctx := v.service, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles keys and the results of service calls.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch v.mode {
		case choosing:
			return v.updateChoosing(msg)
		case confirming:
			return v.updateConfirming(msg)
		case listing:
		}
		return v.updateListing(msg)
	case messages.DocumentsLoaded:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.documents = msg.Documents
		v.err = nil
		v.statusbar.Done(len(v.documents), "documents")
		v.moveTo(v.selected)
		return v, v.pruneScope()
	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.notice = "Deleted " + v.nameOf(msg.DocumentID)
		return v, v.fetch()
	case messages.DocumentReindexed:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.notice = fmt.Sprintf("Reindexed %s into %d chunks", v.nameOf(msg.DocumentID), msg.Chunks)
		v.statusbar.Done(len(v.documents), "documents")
	case messages.ErrorOccurred:
		v.fail(msg.Err)
	}
	return v, nil
}

func (v *View) fail(err error) {
	v.err = err
	v.notice = ""
	v.statusbar.Fail(err)
}

func (v *View) updateListing(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case keymap.Matches(k, v.keymap.Up):
		v.moveTo(v.selected - 1)
	case keymap.Matches(k, v.keymap.Down):
		v.moveTo(v.selected + 1)
	case keymap.Matches(k, v.keymap.ToggleScope):
		return v, v.toggle()
	case keymap.Matches(k, v.keymap.ClearScope):
		if len(v.scope) == 0 {
			return v, nil
		}
		clear(v.scope)
		return v, v.scopeChanged()
	case keymap.Matches(k, v.keymap.Reload):
		return v, v.fetch()
	case keymap.Matches(k, v.keymap.Actions):
		if v.SelectedDocument() != nil {
			v.mode = choosing
			v.action = ActionOpen
		}
	}
	return v, nil
}

func (v *View) updateChoosing(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		v.mode = listing
	case keymap.Matches(k, v.keymap.Up):
		v.action = max(v.action-1, ActionOpen)
	case keymap.Matches(k, v.keymap.Down):
		v.action = min(v.action+1, ActionCancel)
	case keymap.Matches(k, v.keymap.Actions):
		return v, v.run(v.action)
	}
	return v, nil
}

func (v *View) updateConfirming(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.mode = listing
	doc := v.SelectedDocument()
	if doc == nil || !keymap.Matches(msg.String(), v.keymap.Confirm) {
		v.notice = "Delete cancelled"
		return v, nil
	}
	svc, ctx, id := v.service, v.ctx, doc.ID
	return v, func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{DocumentID: id, Err: svc.Delete(ctx, id)}
	}
}

// run performs a menu action on the selected document.
func (v *View) run(a Action) tea.Cmd {
	v.mode = listing
	doc := v.SelectedDocument()
	if doc == nil {
		return nil
	}
	selected := *doc

	switch a {
	case ActionOpen:
		return func() tea.Msg { return messages.DocumentSelected{Document: selected} }
	case ActionReindex:
		v.notice = "Reindexing " + selected.Name + "..."
		svc, ctx := v.service, v.ctx
		return func() tea.Msg {
			if svc == nil {
				return messages.DocumentReindexed{DocumentID: selected.ID, Err: ErrNoDocumentService}
			}
			n, err := svc.Reindex(ctx, selected.ID)
			return messages.DocumentReindexed{DocumentID: selected.ID, Chunks: n, Err: err}
		}
	case ActionDelete:
		v.mode = confirming
	case ActionCancel:
	}
	return nil
}

func (v *View) toggle() tea.Cmd {
	doc := v.SelectedDocument()
	if doc == nil {
		return nil
	}
	if v.scope[doc.ID] {
		delete(v.scope, doc.ID)
	} else {
		v.scope[doc.ID] = true
	}
	return v.scopeChanged()
}

// pruneScope forgets scoped documents that have gone from the list.
func (v *View) pruneScope() tea.Cmd {
	before := len(v.scope)
	listed := make(map[string]bool, len(v.documents))
	for _, d := range v.documents {
		listed[d.ID] = true
	}
	for id := range v.scope {
		if !listed[id] {
			delete(v.scope, id)
		}
	}
	if len(v.scope) == before {
		return nil
	}
	return v.scopeChanged()
}

func (v *View) scopeChanged() tea.Cmd {
	ids, names := v.Scope()
	v.statusbar.SetScope(len(ids))
	return func() tea.Msg { return messages.ScopeChanged{DocIDs: ids, Names: names} }
}

// Scope returns the scoped IDs and names in list order, or nil for all.
func (v *View) Scope() (ids, names []string) {
	if len(v.scope) == 0 {
		return nil, nil
	}
	for _, d := range v.documents {
		if v.scope[d.ID] {
			ids = append(ids, d.ID)
			names = append(names, d.Name)
		}
	}
	return ids, names
}

func (v *View) nameOf(id string) string {
	for _, d := range v.documents {
		if d.ID == id {
			return d.Name
		}
	}
	return id
}

// moveTo selects row i, clamped to the list, and scrolls it into view.
func (v *View) moveTo(i int) {
	v.selected = max(min(i, len(v.documents)-1), 0)
	rows := v.rows()
	switch {
	case v.selected < v.offset:
		v.offset = v.selected
	case v.selected >= v.offset+rows:
		v.offset = v.selected - rows + 1
	}
}

// rows is how many documents fit on screen.
func (v *View) rows() int {
	return max(v.height-chrome, 1)
}

// View renders the screen.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.statusbar.State() == status.StateLoading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents imported. Run `marginalia import <file>` to add one."))
	case v.mode == choosing:
		b.WriteString(v.renderActions())
	default:
		b.WriteString(v.renderList())
	}

	if v.mode == confirming {
		if doc := v.SelectedDocument(); doc != nil {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s and its index entries? [y/N]", doc.Name)))
		}
	} else if v.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render(v.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderList() string {
	rows := v.rows()
	end := min(v.offset+rows, len(v.documents))
	lines := make([]string, 0, end-v.offset+2)
	for i := v.offset; i < end; i++ {
		lines = append(lines, v.renderRow(i))
	}
	if len(v.documents) > rows {
		lines = append(lines, "", v.styles.Muted.Render(
			fmt.Sprintf("  [%d-%d of %d]", v.offset+1, end, len(v.documents))))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderRow(i int) string {
	doc := &v.documents[i]
	cursor, box := "  ", "[ ] "
	if i == v.selected {
		cursor = "> "
	}
	if v.scope[doc.ID] {
		box = "[x] "
	}

	name := doc.Name
	if name == "" {
		name = doc.ID
	}
	nameWidth := max(v.width/2-8, 10)
	if r := []rune(name); len(r) > nameWidth {
		name = string(r[:nameWidth-3]) + "..."
	}

	info := humanize.Comma(int64(doc.CharCount)) + " chars"
	if !doc.CreatedAt.IsZero() {
		info += " · " + humanize.Time(doc.CreatedAt)
	}

	if i == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%s%-*s  %s", cursor, box, nameWidth, name, info))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%s%-*s  ", cursor, box, nameWidth, name)) +
		v.styles.Muted.Render(info)
}

func (v *View) renderActions() string {
	doc := v.SelectedDocument()
	if doc == nil {
		return ""
	}
	lines := []string{v.styles.Subtitle.Render("Actions for: " + doc.Name), ""}
	for a := ActionOpen; a <= ActionCancel; a++ {
		if a == v.action {
			lines = append(lines, v.styles.Selected.Render("> "+a.String()))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+a.String()))
		}
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.statusbar.SetWidth(width)
	v.moveTo(v.selected)
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.DocumentSummary { return v.documents }

// SelectedIndex returns the cursor row.
func (v *View) SelectedIndex() int { return v.selected }

// SelectedDocument returns the document under the cursor, or nil.
func (v *View) SelectedDocument() *domain.DocumentSummary {
	if v.selected < 0 || v.selected >= len(v.documents) {
		return nil
	}
	return &v.documents[v.selected]
}

// IsShowingMenu reports whether the action menu is open.
func (v *View) IsShowingMenu() bool { return v.mode == choosing }

// Confirming reports whether a delete awaits confirmation.
func (v *View) Confirming() bool { return v.mode == confirming }

// Err returns the last failure.
func (v *View) Err() error { return v.err }
