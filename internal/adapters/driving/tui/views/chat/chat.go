// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// ErrNoChatService indicates that no chat service was provided.
var ErrNoChatService = errors.New("chat service is required")

// Exchange is one question and its answer.
type Exchange struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// Pending reports whether the answer has not arrived yet.
func (e Exchange) Pending() bool {
	return e.Answer == nil && e.Err == nil
}

// View is the chat view: a scrolling transcript above a question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.Field
	transcript viewport.Model
	statusbar  *status.Bar

	chatService driving.ChatService
	ctx         context.Context
	scope       []string
	scopeNames  []string
	topK        int

	exchanges []Exchange
	width     int
	height    int
	ready     bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chatService driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		transcript:  viewport.New(80, 14),
		statusbar:   status.NewBar(s, km, keymap.Chat),
		chatService: chatService,
		ctx:         context.Background(),
		topK:        domain.DefaultTopK,
		width:       80,
		height:      24,
	}
	v.refresh()
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Focus()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.Fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case tea.KeyEnter:
		return v, v.ask()
	case tea.KeyCtrlL:
		v.exchanges = nil
		v.statusbar.Reset()
		v.refresh()
		return v, nil
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ask submits the typed question. Only one question is in flight at a time.
func (v *View) ask() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.Waiting() {
		return nil
	}

	v.input.Remember(question)
	v.input.SetValue("")
	v.exchanges = append(v.exchanges, Exchange{Question: question})
	v.statusbar.Busy(status.StateThinking)
	v.refresh()

	svc, ctx, scope, topK := v.chatService, v.ctx, v.scope, v.topK
	return func() tea.Msg {
		if svc == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoChatService}
		}
		answer, err := svc.Ask(ctx, question, scope, topK)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	for i := len(v.exchanges) - 1; i >= 0; i-- {
		ex := &v.exchanges[i]
		if ex.Pending() && ex.Question == msg.Question {
			ex.Answer = msg.Answer
			ex.Err = msg.Err
			if ex.Answer == nil && ex.Err == nil {
				ex.Answer = &domain.Answer{Text: domain.NoMatchAnswer}
			}
			break
		}
	}

	switch {
	case msg.Err != nil:
		v.statusbar.Fail(msg.Err)
	case msg.Answer != nil:
		v.statusbar.Done(len(msg.Answer.Sources), "sources")
	default:
		v.statusbar.Reset()
	}
	v.refresh()
}

// refresh re-renders the transcript and keeps the newest turn in view.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.exchanges) == 0 {
		return v.styles.Muted.Render("Ask a question about your documents. Answers cite the excerpts they use.")
	}

	width := max(v.width-2, 20)
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	for i, ex := range v.exchanges {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(v.styles.Question.Render("You: "))
		b.WriteString(wrap.Render(ex.Question))
		b.WriteString("\n")

		switch {
		case ex.Err != nil:
			b.WriteString(v.styles.Error.Render("Error: " + ex.Err.Error()))
		case ex.Answer == nil:
			b.WriteString(v.styles.Muted.Render("..."))
		default:
			b.WriteString(wrap.Render(ex.Answer.Text))
			if sources := renderSources(ex.Answer.Sources); sources != "" {
				b.WriteString("\n")
				b.WriteString(v.styles.Source.Render(sources))
			}
		}
	}
	return b.String()
}

// renderSources lists cited excerpts as "[n] name (chunk i/N)".
func renderSources(sources []domain.SearchResult) string {
	lines := make([]string, 0, len(sources))
	for i, s := range sources {
		lines = append(lines, fmt.Sprintf("[%d] %s (chunk %d/%d)",
			i+1, s.Metadata.DocumentName, s.Metadata.ChunkIndex+1, s.Metadata.TotalChunks))
	}
	return strings.Join(lines, "\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	scope := "all documents"
	if len(v.scopeNames) > 0 {
		scope = strings.Join(v.scopeNames, ", ")
	} else if v.scope != nil {
		scope = "no documents"
	}

	sections := []string{
		v.styles.Title.Render("Chat"),
		v.styles.Muted.Render("Scope: " + scope),
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	// Reserve space for title, scope, input box and status bar
	v.transcript.Width = max(width, 20)
	v.transcript.Height = max(height-10, 3)
	v.refresh()
}

// SetScope restricts questions to docIDs. Nil asks across every document.
func (v *View) SetScope(docIDs, names []string) {
	v.scope = docIDs
	v.scopeNames = names
	v.statusbar.SetScope(len(docIDs))
}

// SetTopK sets the retrieval depth for questions.
func (v *View) SetTopK(k int) {
	if k > 0 {
		v.topK = k
	}
}

// Exchanges returns the transcript.
func (v *View) Exchanges() []Exchange {
	return v.exchanges
}

// Waiting reports whether a question is awaiting its answer.
func (v *View) Waiting() bool {
	return len(v.exchanges) > 0 && v.exchanges[len(v.exchanges)-1].Pending()
}

// Question returns the text in the input.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the text in the input.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
