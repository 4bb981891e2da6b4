package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// newTestSettings returns a settings service that sees env instead of the process environment.
func newTestSettings(store *memory.ConfigStore, env map[string]string) *SettingsService {
	service := NewSettingsService(store, nil)
	service.getenv = func(key string) string { return env[key] }
	return service
}

type stubValidator struct {
	llmErr   error
	embedErr error
	llm      *domain.LLMSettings
	embed    *domain.EmbeddingSettings
}

func (v *stubValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	v.embed = cfg
	return v.embedErr
}

func (v *stubValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	v.llm = cfg
	return v.llmErr
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider":            "openai",
		"llm.model":               "gpt-4o-mini",
		"llm.api_key":             "sk-stored",
		"embedding.provider":      "ollama",
		"embedding.model":         "mxbai-embed-large",
		"chunking.size":           int64(800),
		"chunking.overlap":        int64(0),
		"retrieval.chat_top_k":    int64(8),
		"retrieval.compare_top_k": float64(4),
		"chapters.digit_fixes":    []any{"S=5", "o=0"},
	})
	service := newTestSettings(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
	assert.Equal(t, "sk-stored", settings.LLM.APIKey)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", settings.Embedding.Model)
	assert.Equal(t, domain.ChunkingSettings{Size: 800, Overlap: 0}, settings.Chunking)
	assert.Equal(t, domain.RetrievalSettings{ChatTopK: 8, CompareTopK: 4}, settings.Retrieval)
	assert.Equal(t, map[string]string{"s": "5", "o": "0"}, settings.Chapters.DigitFixes)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider":       "local",
		"llm.model":          "hashing-bow",
		"embedding.provider": "anthropic",
	})
	service := newTestSettings(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
}

func TestSettingsService_Get_BadDigitFixes(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"chapters.digit_fixes": []any{"nonsense"}})
	service := newTestSettings(store, nil)

	_, err := service.Get()

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsService_Get_EnvironmentKeys(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		want     string
	}{
		{"generic wins", "openai", map[string]string{EnvLLMAPIKey: "generic", EnvOpenAIAPIKey: "vendor"}, "generic"},
		{"openai vendor", "openai", map[string]string{EnvOpenAIAPIKey: "vendor"}, "vendor"},
		{"anthropic vendor", "anthropic", map[string]string{EnvAnthropicAPIKey: "ant"}, "ant"},
		{"wrong vendor falls back to stored", "anthropic", map[string]string{EnvOpenAIAPIKey: "oai"}, "stored"},
		{"local ignores env", "ollama", map[string]string{EnvLLMAPIKey: "generic"}, "stored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore(map[string]any{
				"llm.provider": tt.provider,
				"llm.api_key":  "stored",
			})
			service := newTestSettings(store, tt.env)

			settings, err := service.Get()

			require.NoError(t, err)
			assert.Equal(t, tt.want, settings.LLM.APIKey)
		})
	}
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	settings := domain.DefaultAppSettings()
	settings.LLM = domain.LLMSettings{
		Provider:  domain.AIProviderAnthropic,
		Model:     "claude-sonnet-4-20250514",
		APIKey:    "sk-ant",
		MaxTokens: 1000,
	}
	settings.Chunking = domain.ChunkingSettings{Size: 500, Overlap: 50}
	settings.Chapters.DigitFixes = map[string]string{"s": "5", "l": "1"}

	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
	assert.Equal(t, []string{"l=1", "s=5"}, store.GetStringSlice("chapters.digit_fixes"))
}

func TestSettingsService_Save_DoesNotPersistEnvironmentKey(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"llm.provider": "openai"})
	service := newTestSettings(store, map[string]string{EnvOpenAIAPIKey: "from-env"})

	settings, err := service.Get()
	require.NoError(t, err)
	require.Equal(t, "from-env", settings.LLM.APIKey)

	require.NoError(t, service.Save(settings))

	_, stored := store.Get("llm.api_key")
	assert.False(t, stored)
}

func TestSettingsService_Save_RejectsBadChunking(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	settings := domain.DefaultAppSettings()
	settings.Chunking.Overlap = settings.Chunking.Size

	assert.ErrorIs(t, service.Save(&settings), domain.ErrInvalidConfig)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	t.Run("ollama default model and base url", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := newTestSettings(store, nil)

		require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultLLMModels[domain.AIProviderOllama], settings.LLM.Model)
		assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)
	})

	t.Run("hosted with key", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := newTestSettings(store, nil)

		require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "gpt-4o-mini", "sk-test"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
		assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
		assert.Equal(t, "sk-test", settings.LLM.APIKey)
		assert.Empty(t, settings.LLM.BaseURL)
	})

	t.Run("hosted key from environment", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := newTestSettings(store, map[string]string{EnvAnthropicAPIKey: "sk-env"})

		require.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "sk-env", settings.LLM.APIKey)
		_, stored := store.Get("llm.api_key")
		assert.False(t, stored)
	})

	t.Run("hosted without key", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)

		err := service.SetLLMProvider(domain.AIProviderAnthropic, "", "")

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("embedding-only provider", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)

		err := service.SetLLMProvider(domain.AIProviderLocal, "", "")

		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("switching to local clears the stored key", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := newTestSettings(store, nil)
		require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", "sk-test"))

		require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "", ""))

		_, stored := store.Get("llm.api_key")
		assert.False(t, stored)
	})
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("ollama updates dimensions", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "mxbai-embed-large", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "mxbai-embed-large", settings.Embedding.Model)
		assert.Equal(t, 1024, settings.Embedding.Dimensions)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	})

	t.Run("openai default model", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
		assert.Equal(t, 1536, settings.Embedding.Dimensions)
	})

	t.Run("anthropic not supported", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)

		err := service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key")

		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("openai requires key", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)

		err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestSettingsService_SetChunking(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetChunking(600, 0))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.ChunkingSettings{Size: 600, Overlap: 0}, settings.Chunking)

	assert.ErrorIs(t, service.SetChunking(0, 0), domain.ErrInvalidConfig)
	assert.ErrorIs(t, service.SetChunking(100, 100), domain.ErrInvalidConfig)
	assert.ErrorIs(t, service.SetChunking(100, -1), domain.ErrInvalidConfig)
}

func TestSettingsService_SetRetrieval(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetRetrieval(10, 2))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.RetrievalSettings{ChatTopK: 10, CompareTopK: 2}, settings.Retrieval)

	assert.ErrorIs(t, service.SetRetrieval(0, 2), domain.ErrInvalidConfig)
}

func TestSettingsService_SetDigitFixes(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetDigitFixes([]string{"s=5", "I=1"}))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"s": "5", "i": "1"}, settings.Chapters.DigitFixes)

	require.NoError(t, service.SetDigitFixes(nil))
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.Chapters.DigitFixes)
	assert.NotNil(t, settings.Chapters.DigitFixes)

	assert.ErrorIs(t, service.SetDigitFixes([]string{"s=five"}), domain.ErrInvalidConfig)
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("without validator", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateLLMConfig())
		assert.NoError(t, service.ValidateEmbeddingConfig())
	})

	t.Run("passes current settings", func(t *testing.T) {
		validator := &stubValidator{llmErr: errors.New("unreachable")}
		service := NewSettingsService(memory.NewConfigStore(), validator)

		assert.EqualError(t, service.ValidateLLMConfig(), "unreachable")
		require.NotNil(t, validator.llm)
		assert.Equal(t, domain.AIProviderOllama, validator.llm.Provider)

		assert.NoError(t, service.ValidateEmbeddingConfig())
		require.NotNil(t, validator.embed)
		assert.Equal(t, domain.AIProviderLocal, validator.embed.Provider)
	})
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
