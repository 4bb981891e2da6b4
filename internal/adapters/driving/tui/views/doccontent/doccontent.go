// Package doccontent is the reader: it shows one document's full text and,
// when opened from a search result or an answer source, scrolls to and
// marks the excerpt.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// ErrNoDocumentService is reported when the view has no service to call.
var ErrNoDocumentService = errors.New("document service not available")

const (
	// excerptProbe is how many runes of an excerpt are looked for in the text.
	excerptProbe = 30
	// chrome is the rows around the text: title, rule, gaps, position, status.
	chrome   = 6
	minWrap  = 20
	wrapRoom = 4
)

// View renders a document inside a scrolling viewport.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar
	service   driving.DocumentService
	ctx       context.Context

	document *domain.DocumentSummary
	excerpt  string
	back     messages.ViewType

	content string
	lines   []string
	// marked is the wrapped line where the excerpt starts, or -1.
	marked   int
	viewport viewport.Model

	loading       bool
	err           error
	width, height int
}

// NewView creates the reader. service may be nil; opening a document then
// fails with ErrNoDocumentService.
func NewView(s *styles.Styles, service driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	v := &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, km, keymap.Reader),
		service:   service,
		ctx:       context.Background(),
		back:      messages.ViewDocuments,
		marked:    -1,
		viewport:  viewport.New(80, 24-chrome),
	}
	v.SetDimensions(80, 24)
	return v
}

// WithContext sets the context passed to service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd { return nil }

// SetDocument opens sel and returns the command that fetches its text.
func (v *View) SetDocument(sel messages.DocumentSelected) tea.Cmd {
	doc := sel.Document
	v.document = &doc
	v.excerpt = sel.Excerpt
	v.back = sel.From
	if v.back == messages.ViewMenu {
		v.back = messages.ViewDocuments
	}
	v.content, v.lines, v.marked = "", nil, -1
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()

	svc, ctx, id := v.service, v.ctx, doc.ID
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentContentLoaded{DocumentID: id, Err: ErrNoDocumentService}
		}
		d, err := svc.Get(ctx, id)
		if err != nil {
			return messages.DocumentContentLoaded{DocumentID: id, Err: err}
		}
		return messages.DocumentContentLoaded{DocumentID: id, Content: d.Content}
	}
}

// Update scrolls on keys and shows loaded text.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			back := v.back
			return v, func() tea.Msg { return messages.ViewChanged{View: back} }
		case "home", "g":
			v.viewport.GotoTop()
			return v, nil
		case "end", "G":
			v.viewport.GotoBottom()
			return v, nil
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case messages.DocumentContentLoaded:
		if v.document != nil && msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.Fail(msg.Err)
			return v, nil
		}
		v.err = nil
		v.statusbar.Reset()
		v.content = msg.Content
		v.layout()
		v.findExcerpt()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
	}
	return v, nil
}

// layout wraps the text to the current width and refills the viewport.
func (v *View) layout() {
	v.lines = wrap(v.content, max(v.width-wrapRoom, minWrap))
	v.refresh()
}

func (v *View) refresh() {
	rendered := make([]string, len(v.lines))
	for i, line := range v.lines {
		if i == v.marked {
			rendered[i] = v.styles.Marked.Render(line)
		} else {
			rendered[i] = line
		}
	}
	v.viewport.SetContent(strings.Join(rendered, "\n"))
}

// wrap breaks every line of text at word boundaries, splitting words
// longer than width.
func wrap(text string, width int) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, strings.Split(ansi.Wrap(line, width, ""), "\n")...)
	}
	return out
}

// findExcerpt marks the first line holding the start of the excerpt and
// scrolls it to the top, as far as the text allows.
func (v *View) findExcerpt() {
	probe := strings.TrimSpace(v.excerpt)
	if probe == "" {
		return
	}
	probe, _, _ = strings.Cut(probe, "\n")
	if r := []rune(probe); len(r) > excerptProbe {
		probe = string(r[:excerptProbe])
	}
	for i, line := range v.lines {
		if strings.Contains(line, probe) {
			v.marked = i
			v.refresh()
			v.viewport.SetYOffset(i)
			return
		}
	}
}

// View renders the reader.
func (v *View) View() string {
	title := "Document"
	if v.document != nil {
		title = v.document.Name
		if title == "" {
			title = v.document.ID
		}
	}

	var body string
	switch {
	case v.loading:
		body = v.styles.Muted.Render("Loading content...")
	case v.err != nil:
		body = v.styles.Error.Render("Error: " + v.err.Error())
	case len(v.lines) == 0:
		body = v.styles.Muted.Render("(No content)")
	default:
		body = v.viewport.View() + "\n\n" + v.styles.Muted.Render(v.position())
	}

	return strings.Join([]string{
		v.styles.Title.Render(title),
		strings.Repeat("─", max(min(v.width-wrapRoom, 60), 0)),
		"",
		body,
		"",
		v.statusbar.View(),
	}, "\n")
}

// position reads like "[25%] Line 11-20 of 50".
func (v *View) position() string {
	total := len(v.lines)
	first := v.viewport.YOffset + 1
	last := min(v.viewport.YOffset+v.viewport.Height, total)
	return fmt.Sprintf("  [%d%%] Line %d-%d of %d", int(v.viewport.ScrollPercent()*100), first, last, total)
}

// SetDimensions resizes the viewport and rewraps the text.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.viewport.Width = width
	v.viewport.Height = max(height-chrome, 1)
	v.statusbar.SetWidth(width)
	if v.content != "" {
		offset := v.viewport.YOffset
		v.layout()
		v.viewport.SetYOffset(offset)
	}
}

// Document returns the open document, or nil.
func (v *View) Document() *domain.DocumentSummary { return v.document }

// Content returns the full text of the open document.
func (v *View) Content() string { return v.content }

// ScrollOffset returns the index of the first visible line.
func (v *View) ScrollOffset() int { return v.viewport.YOffset }

// Err returns the last failure.
func (v *View) Err() error { return v.err }
