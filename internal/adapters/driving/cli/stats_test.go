package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func testComparison() *domain.TextComparison {
	return &domain.TextComparison{
		Documents:    []string{"Moby Dick", "Walden"},
		Similarities: map[string]float64{"Moby Dick vs Walden": 0.125},
		Themes: map[string][]string{
			"Moby Dick": {"whale", "sea"},
			"Walden":    {"woods", "pond"},
		},
		SharedThemes: nil,
		CommonPassages: []domain.CommonPassage{
			{Passage: "the morning air", Documents: []string{"Moby Dick", "Walden"}},
		},
	}
}

func TestStatsCmd_Text(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.stats.result = testComparison()

	out, _, err := executeCommand(t, "", "stats", "Moby Dick", "Walden")

	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1111", "doc-2222"}, ts.stats.lastIDs)
	assert.Contains(t, out, "Documents: Moby Dick, Walden")
	assert.Contains(t, out, "Moby Dick vs Walden: 0.125")
	assert.Contains(t, out, "Moby Dick: whale, sea")
	assert.NotContains(t, out, "Shared:")
	assert.Contains(t, out, `"the morning air" in Moby Dick, Walden`)
}

func TestStatsCmd_NoCommonPassages(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	result := testComparison()
	result.CommonPassages = nil
	result.SharedThemes = []string{"water"}
	ts.stats.result = result

	out, _, err := executeCommand(t, "", "stats", "doc-1111", "doc-2222")

	require.NoError(t, err)
	assert.Contains(t, out, "Shared: water")
	assert.Contains(t, out, "(none)")
}

func TestStatsCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.stats.result = testComparison()

	out, _, err := executeCommand(t, "", "stats", "Moby Dick", "Walden", "-f", "json")

	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "pairwise_similarities")
	assert.Contains(t, decoded, "common_passages")
}

func TestStatsCmd_NeedsTwoArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := executeCommand(t, "", "stats", "Walden")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg(s)")
}

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(map[string]int{"b": 1, "c": 2, "a": 3})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}
