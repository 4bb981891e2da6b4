package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
)

func TestNewBar_Defaults(t *testing.T) {
	bar := NewBar(nil, nil, keymap.SearchInput)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keys)
	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Err())
	assert.Contains(t, bar.View(), "Ready")
	assert.Contains(t, bar.View(), "scope: all")
}

func TestBar_Lifecycle(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap(), keymap.SearchInput)
	bar.SetWidth(120)

	bar.Busy(StateSearching)
	assert.Contains(t, bar.View(), "Searching...")

	bar.Done(4, "excerpts")
	assert.Equal(t, StateReady, bar.State())
	assert.Contains(t, bar.View(), "4 excerpts")

	bar.Fail(errors.New("index closed"))
	assert.Equal(t, StateError, bar.State())
	assert.Equal(t, "index closed", bar.Err())
	assert.Contains(t, bar.View(), "Error: index closed")

	bar.Busy(StateThinking)
	assert.Empty(t, bar.Err())
	assert.Contains(t, bar.View(), "Thinking...")

	bar.Reset()
	assert.Equal(t, StateReady, bar.State())
	assert.NotContains(t, bar.View(), "excerpts")
}

func TestBar_FailWithoutError(t *testing.T) {
	bar := NewBar(nil, nil, keymap.Chat)

	bar.Fail(nil)

	assert.Equal(t, StateError, bar.State())
	assert.Empty(t, bar.Err())
	assert.Contains(t, bar.View(), "Error")
}

func TestBar_Scope(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "scope: all"},
		{1, "scope: 1 document"},
		{3, "scope: 3 documents"},
	}
	for _, tt := range tests {
		bar := NewBar(nil, nil, keymap.Chat)
		bar.SetScope(tt.n)
		assert.Contains(t, bar.View(), tt.want)
	}
}

func TestBar_Hints(t *testing.T) {
	bar := NewBar(nil, nil, keymap.SearchInput)
	bar.SetWidth(120)
	assert.Contains(t, bar.View(), "enter send")

	bar.SetHints(keymap.SearchResults)
	assert.Contains(t, bar.View(), "n new search")
}

func TestBar_NarrowDropsHints(t *testing.T) {
	bar := NewBar(nil, nil, keymap.Documents)
	bar.SetWidth(30)

	out := bar.View()

	assert.Contains(t, out, "scope: all")
	assert.NotContains(t, out, "esc back")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Ready", StateReady.String())
	assert.Equal(t, "Searching...", StateSearching.String())
	assert.Equal(t, "Thinking...", StateThinking.String())
	assert.Equal(t, "Loading...", StateLoading.String())
	assert.Equal(t, "Error", StateError.String())
}
