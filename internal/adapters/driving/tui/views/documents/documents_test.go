package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ListFunc    func(ctx context.Context) ([]domain.DocumentSummary, error)
	ReindexFunc func(ctx context.Context, id string) (int, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

var _ driving.DocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) Import(context.Context, string) (*domain.ImportResult, error) {
	return nil, nil
}

func (m *MockDocumentService) ImportText(context.Context, string, string) (*domain.ImportResult, error) {
	return nil, nil
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.DocumentSummary{}, nil
}

func (m *MockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) FindByPath(context.Context, string) (*domain.DocumentSummary, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Rename(context.Context, string, string) error {
	return nil
}

func (m *MockDocumentService) Reindex(ctx context.Context, id string) (int, error) {
	if m.ReindexFunc != nil {
		return m.ReindexFunc(ctx, id)
	}
	return 0, nil
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func sampleDocs() []domain.DocumentSummary {
	return []domain.DocumentSummary{
		{ID: "d1", Name: "Emma", CharCount: 880000, CreatedAt: time.Now().Add(-72 * time.Hour)},
		{ID: "d2", Name: "Persuasion", CharCount: 460000},
		{ID: "d3", Name: "Sanditon", CharCount: 120000},
	}
}

func loadedView(t *testing.T) *View {
	t.Helper()
	v := NewView(styles.DefaultStyles(), &MockDocumentService{})
	v.SetDimensions(100, 30)
	v, _ = v.Update(messages.DocumentsLoaded{Documents: sampleDocs()})
	return v
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView_NilStyles(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.Empty(t, v.Documents())
	assert.Nil(t, v.Init())
	assert.Nil(t, v.SelectedDocument())
}

func TestView_Load(t *testing.T) {
	svc := &MockDocumentService{
		ListFunc: func(context.Context) ([]domain.DocumentSummary, error) {
			return sampleDocs(), nil
		},
	}
	v := NewView(nil, svc)

	cmd := v.Load()
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Loading documents")

	loaded, ok := cmd().(messages.DocumentsLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)

	v, _ = v.Update(loaded)
	out := v.View()
	assert.Len(t, v.Documents(), 3)
	assert.Contains(t, out, "Documents (3)")
	assert.Contains(t, out, "880,000 chars")
	assert.Contains(t, out, "3 days ago")
	assert.Contains(t, out, "3 documents")
}

func TestView_Load_NoService(t *testing.T) {
	v := NewView(nil, nil)

	loaded, ok := v.Load()().(messages.DocumentsLoaded)

	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, ErrNoDocumentService)
}

func TestView_LoadError(t *testing.T) {
	v := NewView(nil, nil)

	v, _ = v.Update(messages.DocumentsLoaded{Err: errors.New("disk gone")})

	require.Error(t, v.Err())
	assert.Contains(t, v.View(), "disk gone")
}

func TestView_Reload(t *testing.T) {
	calls := 0
	v := NewView(nil, &MockDocumentService{
		ListFunc: func(context.Context) ([]domain.DocumentSummary, error) {
			calls++
			return sampleDocs(), nil
		},
	})
	v, _ = v.Update(messages.DocumentsLoaded{Documents: sampleDocs()})
	v, _ = v.Update(key("j"))

	_, cmd := v.Update(key("r"))
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, v.SelectedIndex(), "reload keeps the cursor")
}

func TestView_Navigation(t *testing.T) {
	v := loadedView(t)

	v, _ = v.Update(key("down"))
	assert.Equal(t, 1, v.SelectedIndex())
	v, _ = v.Update(key("j"))
	v, _ = v.Update(key("j"))
	assert.Equal(t, 2, v.SelectedIndex())
	v, _ = v.Update(key("k"))
	assert.Equal(t, "Persuasion", v.SelectedDocument().Name)
}

func TestView_ScopeToggle(t *testing.T) {
	v := loadedView(t)

	v, cmd := v.Update(key(" "))
	require.NotNil(t, cmd)
	changed, ok := cmd().(messages.ScopeChanged)
	require.True(t, ok)
	assert.Equal(t, []string{"d1"}, changed.DocIDs)
	assert.Equal(t, []string{"Emma"}, changed.Names)
	assert.Contains(t, v.View(), "scope: 1 document")

	v, _ = v.Update(key("j"))
	v, _ = v.Update(key("j"))
	v, cmd = v.Update(key(" "))
	changed = cmd().(messages.ScopeChanged)
	assert.Equal(t, []string{"d1", "d3"}, changed.DocIDs)
	assert.Contains(t, v.View(), "[x]")

	// Unscoping the last document widens back to everything.
	v, _ = v.Update(key(" "))
	v, _ = v.Update(key("k"))
	v, _ = v.Update(key("k"))
	_, cmd = v.Update(key(" "))
	changed = cmd().(messages.ScopeChanged)
	assert.Nil(t, changed.DocIDs)
	assert.Nil(t, changed.Names)
}

func TestView_ScopeClearAll(t *testing.T) {
	v := loadedView(t)
	v, _ = v.Update(key(" "))

	v, cmd := v.Update(key("a"))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd().(messages.ScopeChanged).DocIDs)

	_, cmd = v.Update(key("a"))
	assert.Nil(t, cmd, "nothing to clear")
}

func TestView_ScopePrunedOnReload(t *testing.T) {
	v := loadedView(t)
	v, _ = v.Update(key(" "))

	_, cmd := v.Update(messages.DocumentsLoaded{Documents: sampleDocs()[1:]})

	require.NotNil(t, cmd)
	assert.Nil(t, cmd().(messages.ScopeChanged).DocIDs)
}

func TestView_Back(t *testing.T) {
	v := loadedView(t)

	_, cmd := v.Update(key("esc"))

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_ActionOpen(t *testing.T) {
	v := loadedView(t)
	v, _ = v.Update(key("j"))

	v, _ = v.Update(key("enter"))
	require.True(t, v.IsShowingMenu())
	assert.Contains(t, v.View(), "Actions for: Persuasion")

	v, cmd := v.Update(key("enter"))
	assert.False(t, v.IsShowingMenu())
	require.NotNil(t, cmd)
	selected, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "d2", selected.Document.ID)
}

func TestView_ActionReindex(t *testing.T) {
	var got string
	v := NewView(nil, &MockDocumentService{
		ReindexFunc: func(_ context.Context, id string) (int, error) {
			got = id
			return 7, nil
		},
	})
	v, _ = v.Update(messages.DocumentsLoaded{Documents: sampleDocs()})

	v, _ = v.Update(key("enter"))
	v, _ = v.Update(key("j"))
	v, cmd := v.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Reindexing Emma...")

	v, _ = v.Update(cmd())
	assert.Equal(t, "d1", got)
	assert.Contains(t, v.View(), "Reindexed Emma into 7 chunks")
}

func openDelete(t *testing.T, v *View) *View {
	t.Helper()
	v, _ = v.Update(key("enter"))
	v, _ = v.Update(key("j"))
	v, _ = v.Update(key("j"))
	v, cmd := v.Update(key("enter"))
	require.Nil(t, cmd)
	require.True(t, v.Confirming())
	return v
}

func TestView_ActionDelete(t *testing.T) {
	var deleted string
	remaining := sampleDocs()
	v := NewView(nil, &MockDocumentService{
		ListFunc: func(context.Context) ([]domain.DocumentSummary, error) {
			return remaining, nil
		},
		DeleteFunc: func(_ context.Context, id string) error {
			deleted = id
			remaining = remaining[1:]
			return nil
		},
	})
	v, _ = v.Update(messages.DocumentsLoaded{Documents: sampleDocs()})

	v = openDelete(t, v)
	assert.Contains(t, v.View(), "Delete Emma and its index entries? [y/N]")

	v, cmd := v.Update(key("y"))
	require.NotNil(t, cmd)
	v, reload := v.Update(cmd())
	assert.Equal(t, "d1", deleted)
	assert.Contains(t, v.View(), "Deleted Emma")

	require.NotNil(t, reload)
	v, _ = v.Update(reload())
	assert.Len(t, v.Documents(), 2)
}

func TestView_ActionDeleteDeclined(t *testing.T) {
	called := false
	v := NewView(nil, &MockDocumentService{
		DeleteFunc: func(context.Context, string) error {
			called = true
			return nil
		},
	})
	v, _ = v.Update(messages.DocumentsLoaded{Documents: sampleDocs()})
	v = openDelete(t, v)

	v, cmd := v.Update(key("n"))

	assert.Nil(t, cmd)
	assert.False(t, called)
	assert.False(t, v.Confirming())
	assert.Contains(t, v.View(), "Delete cancelled")
}

func TestView_ActionDeleteError(t *testing.T) {
	v := NewView(nil, &MockDocumentService{
		DeleteFunc: func(context.Context, string) error { return domain.ErrNotFound },
	})
	v, _ = v.Update(messages.DocumentsLoaded{Documents: sampleDocs()})
	v = openDelete(t, v)

	v, cmd := v.Update(key("y"))
	v, next := v.Update(cmd())

	assert.Nil(t, next)
	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
}

func TestView_ActionMenuBack(t *testing.T) {
	v := loadedView(t)
	v, _ = v.Update(key("enter"))

	v, _ = v.Update(key("esc"))

	assert.False(t, v.IsShowingMenu())
}

func TestView_Empty(t *testing.T) {
	v := NewView(nil, nil)
	v, _ = v.Update(messages.DocumentsLoaded{Documents: []domain.DocumentSummary{}})

	assert.Contains(t, v.View(), "No documents imported")

	v, _ = v.Update(key("enter"))
	assert.False(t, v.IsShowingMenu())
}

func TestView_Scroll(t *testing.T) {
	docs := make([]domain.DocumentSummary, 20)
	for i := range docs {
		docs[i] = domain.DocumentSummary{ID: string(rune('a' + i)), Name: "Doc"}
	}
	v := NewView(nil, nil)
	v.SetDimensions(80, 12)
	v, _ = v.Update(messages.DocumentsLoaded{Documents: docs})

	for range 10 {
		v, _ = v.Update(key("j"))
	}

	assert.Equal(t, 10, v.SelectedIndex())
	assert.Equal(t, 7, v.offset)
	assert.Contains(t, v.View(), "[8-11 of 20]")
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "Open", ActionOpen.String())
	assert.Equal(t, "Cancel", ActionCancel.String())
}
