package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(f *Field, s string) {
	for _, r := range s {
		f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewFields(t *testing.T) {
	search := NewSearchInput(nil)
	require.NotNil(t, search)
	assert.NotNil(t, search.styles)
	assert.True(t, search.Focused())
	assert.Empty(t, search.Value())
	assert.Equal(t, defaultWidth, search.Width())
	assert.Contains(t, search.View(), "Search")

	ask := NewQuestionInput(nil)
	assert.Contains(t, ask.View(), "Ask")
	assert.NotContains(t, ask.View(), "Search")
}

func TestField_Init(t *testing.T) {
	assert.NotNil(t, NewSearchInput(nil).Init())
}

func TestField_Typing(t *testing.T) {
	f := NewSearchInput(nil)

	typeText(f, "whale")
	assert.Equal(t, "whale", f.Value())

	f.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "whal", f.Value())

	f.Reset()
	assert.Empty(t, f.Value())
}

func TestField_BlurIgnoresKeys(t *testing.T) {
	f := NewSearchInput(nil)
	f.Blur()
	assert.False(t, f.Focused())

	typeText(f, "x")
	assert.Empty(t, f.Value())

	assert.NotNil(t, f.Focus())
	assert.True(t, f.Focused())
}

func TestField_SetWidth(t *testing.T) {
	f := NewSearchInput(nil)

	f.SetWidth(100)
	assert.Equal(t, 100, f.Width())
	assert.Equal(t, 90, f.model.Width)

	f.SetWidth(10)
	assert.Equal(t, 10, f.Width())
	assert.Equal(t, minWidth, f.model.Width)
}

func TestField_Remember(t *testing.T) {
	f := NewSearchInput(nil)

	f.Remember("first")
	f.Remember("first")
	f.Remember("")
	f.Remember("second")

	assert.Equal(t, []string{"first", "second"}, f.History())
}

func TestField_RememberBounded(t *testing.T) {
	f := NewSearchInput(nil)
	for i := 0; i < historySize+5; i++ {
		f.Remember(string(rune('a' + i%26)) + string(rune('0'+i%10)))
	}
	assert.Len(t, f.History(), historySize)
}

func TestField_Recall(t *testing.T) {
	f := NewQuestionInput(nil)
	f.Remember("who is Ishmael")
	f.Remember("why the whale")
	typeText(f, "draft")

	f.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, "why the whale", f.Value())

	f.Prev()
	assert.Equal(t, "who is Ishmael", f.Value())

	f.Prev()
	assert.Equal(t, "who is Ishmael", f.Value(), "stays on the oldest entry")

	f.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, "why the whale", f.Value())

	f.Next()
	assert.Equal(t, "draft", f.Value(), "back to what was typed")

	f.Next()
	assert.Equal(t, "draft", f.Value())
}

func TestField_RecallEmptyHistory(t *testing.T) {
	f := NewSearchInput(nil)
	typeText(f, "abc")

	f.Prev()
	f.Next()

	assert.Equal(t, "abc", f.Value())
}
