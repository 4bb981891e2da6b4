package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderOllama, true},
		{AIProviderOpenAI, true},
		{AIProviderAnthropic, true},
		{AIProviderLocal, true},
		{AIProvider("cohere"), false},
		{AIProvider(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider   AIProvider
		generation bool
		embedding  bool
		apiKey     bool
		local      bool
	}{
		{AIProviderOllama, true, true, false, true},
		{AIProviderOpenAI, true, true, true, false},
		{AIProviderAnthropic, true, false, true, false},
		{AIProviderLocal, false, true, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.generation, tt.provider.SupportsGeneration())
			assert.Equal(t, tt.embedding, tt.provider.SupportsEmbedding())
			assert.Equal(t, tt.apiKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.local, tt.provider.IsLocal())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "OpenAI (cloud)", AIProviderOpenAI.Description())
	assert.Equal(t, "Anthropic (cloud)", AIProviderAnthropic.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestDefaultModels(t *testing.T) {
	assert.Equal(t, "qwen2.5:14b", DefaultLLMModels[AIProviderOllama])
	assert.Equal(t, "gpt-4o", DefaultLLMModels[AIProviderOpenAI])
	assert.Equal(t, "claude-sonnet-4-20250514", DefaultLLMModels[AIProviderAnthropic])

	for _, p := range EmbeddingProviders() {
		model, ok := DefaultEmbeddingModels[p]
		require.True(t, ok, "missing default embedding model for %s", p)
		assert.Contains(t, EmbeddingDimensions, model)
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderLocal}.IsConfigured())
	assert.False(t, LLMSettings{}.IsConfigured())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderLocal}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
}

func TestChunkingSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ChunkingSettings
		wantErr bool
	}{
		{"defaults", ChunkingSettings{Size: 1000, Overlap: 200}, false},
		{"no overlap", ChunkingSettings{Size: 10, Overlap: 0}, false},
		{"negative overlap", ChunkingSettings{Size: 10, Overlap: -5}, false},
		{"zero size", ChunkingSettings{Size: 0}, true},
		{"negative size", ChunkingSettings{Size: -1}, true},
		{"overlap equals size", ChunkingSettings{Size: 100, Overlap: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDigitFixes(t *testing.T) {
	fixes, err := ParseDigitFixes([]string{"s=5", " O = 0 ", "l=1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"s": "5", "o": "0", "l": "1"}, fixes)

	_, err = ParseDigitFixes([]string{"s"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseDigitFixes([]string{"s=five"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFormatDigitFixes(t *testing.T) {
	pairs := FormatDigitFixes(map[string]string{"s": "5", "o": "0"})
	sort.Strings(pairs)
	assert.Equal(t, []string{"o=0", "s=5"}, pairs)
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOllama, s.LLM.Provider)
	assert.Equal(t, "qwen2.5:14b", s.LLM.Model)
	assert.Equal(t, DefaultMaxTokens, s.LLM.MaxTokens)
	assert.Equal(t, AIProviderLocal, s.Embedding.Provider)
	assert.Equal(t, 1000, s.Chunking.Size)
	assert.Equal(t, 200, s.Chunking.Overlap)
	assert.Equal(t, 5, s.Retrieval.ChatTopK)
	assert.Equal(t, 3, s.Retrieval.CompareTopK)
	assert.Equal(t, map[string]string{"s": "5"}, s.Chapters.DigitFixes)
	assert.NoError(t, s.Chunking.Validate())
}
