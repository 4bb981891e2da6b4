// Package messages holds the tea.Msg values exchanged between the TUI
// views and the root model. Results of background work carry their error
// rather than arriving as a separate ErrorOccurred.
package messages

import "github.com/custodia-labs/marginalia/internal/core/domain"

// ViewType names a screen of the TUI.
type ViewType int

// Screens, in menu order.
const (
	ViewMenu ViewType = iota
	ViewChat
	ViewSearch
	ViewDocuments
	// ViewDocContent is the reader for one document.
	ViewDocContent
	ViewHelp
)

var viewNames = [...]string{"menu", "chat", "search", "documents", "reader", "help"}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// Navigation.
type (
	// ViewChanged switches the active screen.
	ViewChanged struct {
		View ViewType
	}

	// DocumentSelected opens the reader.
	DocumentSelected struct {
		Document domain.DocumentSummary
		// Excerpt, when set, is scrolled into view and marked.
		Excerpt string
		// From is where Esc returns. Zero means ViewDocuments.
		From ViewType
	}

	// ScopeChanged restricts chat and search. Nil DocIDs means every
	// document; an empty slice means none.
	ScopeChanged struct {
		DocIDs []string
		Names  []string
	}

	// Quit ends the program.
	Quit struct{}
)

// Results of background commands.
type (
	SearchCompleted struct {
		Query   string
		Results []domain.SearchResult
		Err     error
	}

	AnswerReceived struct {
		Question string
		Answer   *domain.Answer
		Err      error
	}

	DocumentsLoaded struct {
		Documents []domain.DocumentSummary
		Err       error
	}

	DocumentContentLoaded struct {
		DocumentID string
		Content    string
		Err        error
	}

	DocumentDeleted struct {
		DocumentID string
		Err        error
	}

	// DocumentReindexed reports the chunk count after rebuilding.
	DocumentReindexed struct {
		DocumentID string
		Chunks     int
		Err        error
	}

	// ErrorOccurred reports a failure not tied to one request.
	ErrorOccurred struct {
		Err error
	}
)
