package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPromptFiles struct {
	edited map[string]bool
	reset  []string
}

func (m *mockPromptFiles) Dir() string     { return "/home/reader/.marginalia/prompts" }
func (m *mockPromptFiles) Names() []string { return []string{"chapter_summary", "rag"} }

func (m *mockPromptFiles) Customised(name string) (bool, error) {
	return m.edited[name], nil
}

func (m *mockPromptFiles) Reset(name string) error {
	if name == "bogus" {
		return errors.New("unknown prompt")
	}
	m.reset = append(m.reset, name)
	return nil
}

func withPromptFiles(t *testing.T) *mockPromptFiles {
	t.Helper()
	m := &mockPromptFiles{edited: map[string]bool{"rag": true}}
	promptFiles = m
	t.Cleanup(func() { promptFiles = nil })
	return m
}

func TestPromptsList(t *testing.T) {
	withPromptFiles(t)

	out, _, err := executeCommand(t, "", "settings", "prompts")

	require.NoError(t, err)
	assert.Contains(t, out, "/home/reader/.marginalia/prompts")
	assert.Regexp(t, `chapter_summary\s+built-in`, out)
	assert.Regexp(t, `rag\s+edited`, out)
}

func TestPromptsReset(t *testing.T) {
	m := withPromptFiles(t)

	out, _, err := executeCommand(t, "", "settings", "prompts", "reset", "rag")

	require.NoError(t, err)
	assert.Equal(t, []string{"rag"}, m.reset)
	assert.Contains(t, out, "Reset rag")
}

func TestPromptsReset_All(t *testing.T) {
	m := withPromptFiles(t)

	_, _, err := executeCommand(t, "", "settings", "prompts", "reset", "--all")

	require.NoError(t, err)
	assert.Equal(t, []string{"chapter_summary", "rag"}, m.reset)
}

func TestPromptsReset_BadArgs(t *testing.T) {
	withPromptFiles(t)

	_, _, err := executeCommand(t, "", "settings", "prompts", "reset")
	assert.ErrorContains(t, err, "pass --all")

	_, _, err = executeCommand(t, "", "settings", "prompts", "reset", "--all", "rag")
	assert.ErrorContains(t, err, "not both")

	_, _, err = executeCommand(t, "", "settings", "prompts", "reset", "bogus")
	assert.ErrorContains(t, err, "reset bogus")
}

func TestPrompts_NotConfigured(t *testing.T) {
	promptFiles = nil

	_, _, err := executeCommand(t, "", "settings", "prompts")

	assert.ErrorIs(t, err, errPromptsMissing)
}
