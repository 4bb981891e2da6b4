package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/search"
)

var _ tea.Model = (*App)(nil)

// pane is one screen as the app drives it. update routes a message to the
// screen and stores whatever model it hands back.
type pane struct {
	view   func() string
	resize func(width, height int)
	update func(tea.Msg) tea.Cmd
}

// App routes messages between the screens and owns what they share: the
// document scope, the last error and the terminal size.
type App struct {
	ports *Ports
	ctx   context.Context

	menuView       *menu.View
	chatView       *chat.View
	searchView     *search.View
	documentsView  *documents.View
	docContentView *doccontent.View

	panes   map[messages.ViewType]pane
	current messages.ViewType

	// scope holds the documents chat and search are limited to; nil means all.
	scope []string
	err   error
	ready bool
}

func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, ErrInvalidPorts
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	a := &App{
		ports:          ports,
		ctx:            context.Background(),
		menuView:       menu.NewView(s),
		chatView:       chat.NewView(s, nil, ports.Chat),
		searchView:     search.NewView(s, nil, ports.Index),
		documentsView:  documents.NewView(s, ports.Document),
		docContentView: doccontent.NewView(s, ports.Document),
		current:        messages.ViewMenu,
	}
	a.panes = a.buildPanes(newHelpView(s))

	if ports.Settings != nil {
		if settings, err := ports.Settings.Get(); err == nil && settings != nil {
			a.chatView.SetTopK(settings.Retrieval.ChatTopK)
		}
	}
	return a, nil
}

func (a *App) buildPanes(h *helpView) map[messages.ViewType]pane {
	return map[messages.ViewType]pane{
		messages.ViewMenu: {a.menuView.View, a.menuView.SetDimensions, func(m tea.Msg) (cmd tea.Cmd) {
			a.menuView, cmd = a.menuView.Update(m)
			return cmd
		}},
		messages.ViewChat: {a.chatView.View, a.chatView.SetDimensions, func(m tea.Msg) (cmd tea.Cmd) {
			a.chatView, cmd = a.chatView.Update(m)
			return cmd
		}},
		messages.ViewSearch: {a.searchView.View, a.searchView.SetDimensions, func(m tea.Msg) (cmd tea.Cmd) {
			a.searchView, cmd = a.searchView.Update(m)
			return cmd
		}},
		messages.ViewDocuments: {a.documentsView.View, a.documentsView.SetDimensions, func(m tea.Msg) (cmd tea.Cmd) {
			a.documentsView, cmd = a.documentsView.Update(m)
			return cmd
		}},
		messages.ViewDocContent: {a.docContentView.View, a.docContentView.SetDimensions, func(m tea.Msg) (cmd tea.Cmd) {
			a.docContentView, cmd = a.docContentView.Update(m)
			return cmd
		}},
		messages.ViewHelp: {h.View, h.SetDimensions, func(m tea.Msg) tea.Cmd {
			if km, ok := m.(tea.KeyMsg); ok && km.Type == tea.KeyEsc {
				a.current = messages.ViewMenu
			}
			return nil
		}},
	}
}

// WithContext bounds every service call the screens make by ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tea.SetWindowTitle("marginalia"), a.documentsView.Load())
}

// Update handles messages that concern more than one screen and hands the
// rest to the one on display. Replies to background work go to the screen
// that started it, wherever the user has moved since.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case messages.Quit:
		return a, tea.Quit
	case messages.ViewChanged:
		return a, a.switchTo(msg.View)
	case messages.ScopeChanged:
		a.scope = msg.DocIDs
		a.menuView.SetScope(msg.Names)
		a.chatView.SetScope(msg.DocIDs, msg.Names)
		a.searchView.SetScope(msg.DocIDs)
		return a, nil
	case messages.SearchCompleted:
		cmd := a.panes[messages.ViewSearch].update(msg)
		a.err = a.searchView.Err()
		return a, cmd
	case messages.AnswerReceived:
		a.err = msg.Err
		return a, a.panes[messages.ViewChat].update(msg)
	case messages.DocumentsLoaded, messages.DocumentDeleted, messages.DocumentReindexed:
		return a, a.panes[messages.ViewDocuments].update(msg)
	case messages.DocumentSelected:
		a.current = messages.ViewDocContent
		return a, a.docContentView.SetDocument(msg)
	case messages.DocumentContentLoaded:
		return a, a.panes[messages.ViewDocContent].update(msg)
	case messages.ErrorOccurred:
		a.err = msg.Err
	}
	if p, ok := a.panes[a.current]; ok {
		return a, p.update(msg)
	}
	return a, nil
}

// switchTo changes screen. Search keeps its results when the user comes
// back from reading one of them, and the document list refreshes when
// entered from the menu.
func (a *App) switchTo(v messages.ViewType) tea.Cmd {
	prev := a.current
	a.current = v
	switch v {
	case messages.ViewChat:
		return a.chatView.Init()
	case messages.ViewSearch:
		if prev != messages.ViewDocContent {
			a.searchView.Reset()
		}
		return a.searchView.Init()
	case messages.ViewDocuments:
		if prev == messages.ViewMenu {
			return a.documentsView.Load()
		}
	}
	return nil
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	p, ok := a.panes[a.current]
	if !ok {
		p = a.panes[messages.ViewMenu]
	}
	return p.view()
}

func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

func (a *App) CurrentView() messages.ViewType { return a.current }

// Scope returns the documents chat and search are limited to.
func (a *App) Scope() []string { return a.scope }

// Err returns the last error any screen reported.
func (a *App) Err() error { return a.err }

// Ready reports whether the terminal size is known yet.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes every screen, including those not on display.
func (a *App) SetDimensions(width, height int) {
	a.ready = true
	for _, p := range a.panes {
		p.resize(width, height)
	}
}
