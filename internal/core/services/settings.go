package services

import (
	"fmt"
	"os"
	"sort"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyChatTopK        = "retrieval.chat_top_k"
	keyCompareTopK     = "retrieval.compare_top_k"
	keyDigitFixes      = "chapters.digit_fixes"
)

// Environment variables that override stored API keys.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvLLMAPIKey       = "MARGINALIA_LLM_API_KEY"
	EnvEmbeddingAPIKey = "MARGINALIA_EMBEDDING_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// API keys from the environment take precedence over stored ones.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:  s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:     s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:   s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:    s.configStore.GetString(keyLLMAPIKey),
			MaxTokens: s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			ChatTopK:    s.getInt(keyChatTopK, defaults.Retrieval.ChatTopK),
			CompareTopK: s.getInt(keyCompareTopK, defaults.Retrieval.CompareTopK),
		},
		Chapters: domain.ChapterSettings{
			DigitFixes: defaults.Chapters.DigitFixes,
		},
	}

	// A model from the other provider family would never resolve.
	if !settings.LLM.Provider.SupportsGeneration() {
		settings.LLM.Provider = defaults.LLM.Provider
		settings.LLM.Model = defaults.LLM.Model
	}
	if !settings.Embedding.Provider.SupportsEmbedding() {
		settings.Embedding.Provider = defaults.Embedding.Provider
		settings.Embedding.Model = defaults.Embedding.Model
	}

	if _, ok := s.configStore.Get(keyDigitFixes); ok {
		fixes, err := domain.ParseDigitFixes(s.configStore.GetStringSlice(keyDigitFixes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", keyDigitFixes, err)
		}
		settings.Chapters.DigitFixes = fixes
	}

	if key := s.envKey(settings.LLM.Provider, EnvLLMAPIKey); key != "" {
		settings.LLM.APIKey = key
	}
	if key := s.envKey(settings.Embedding.Provider, EnvEmbeddingAPIKey); key != "" {
		settings.Embedding.APIKey = key
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Chunking.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyChatTopK, settings.Retrieval.ChatTopK},
		{keyCompareTopK, settings.Retrieval.CompareTopK},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys that came from the environment are not written to disk.
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != s.envKey(settings.LLM.Provider, EnvLLMAPIKey) {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	if settings.Embedding.APIKey != "" &&
		settings.Embedding.APIKey != s.envKey(settings.Embedding.Provider, EnvEmbeddingAPIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	if settings.Chapters.DigitFixes != nil {
		pairs := domain.FormatDigitFixes(settings.Chapters.DigitFixes)
		sort.Strings(pairs)
		if err := s.configStore.Set(keyDigitFixes, pairs); err != nil {
			return fmt.Errorf("save digit fixes: %w", err)
		}
	}

	return nil
}

// SetLLMProvider configures the generation backend.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsGeneration() {
		return fmt.Errorf("%w: provider %q cannot generate text", domain.ErrInvalidConfig, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && settings.LLM.Provider == provider {
		apiKey = settings.LLM.APIKey
	}
	if apiKey == "" {
		apiKey = s.envKey(provider, EnvLLMAPIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidCredentials, provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels[provider])

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey
	if !provider.RequiresAPIKey() {
		settings.LLM.APIKey = ""
		if err := s.configStore.Delete(keyLLMAPIKey); err != nil {
			return fmt.Errorf("clear llm api_key: %w", err)
		}
	}

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding backend.
// Changing the embedding model invalidates stored vectors; callers reindex.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsEmbedding() {
		return fmt.Errorf("%w: provider %q does not support embeddings", domain.ErrInvalidConfig, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && settings.Embedding.Provider == provider {
		apiKey = settings.Embedding.APIKey
	}
	if apiKey == "" {
		apiKey = s.envKey(provider, EnvEmbeddingAPIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidCredentials, provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels[provider])

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	if d, ok := domain.EmbeddingDimensions[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	settings.Embedding.APIKey = apiKey
	if !provider.RequiresAPIKey() {
		settings.Embedding.APIKey = ""
		if err := s.configStore.Delete(keyEmbedAPIKey); err != nil {
			return fmt.Errorf("clear embedding api_key: %w", err)
		}
	}

	return s.Save(settings)
}

// SetChunking updates the chunk size and overlap.
func (s *SettingsService) SetChunking(size, overlap int) error {
	chunking := domain.ChunkingSettings{Size: size, Overlap: overlap}
	if err := chunking.Validate(); err != nil {
		return err
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidConfig, overlap)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chunking = chunking
	return s.Save(settings)
}

// SetRetrieval updates the chat and comparison retrieval depth.
func (s *SettingsService) SetRetrieval(chatTopK, compareTopK int) error {
	if chatTopK <= 0 || compareTopK <= 0 {
		return fmt.Errorf("%w: retrieval depth must be positive", domain.ErrInvalidConfig)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Retrieval = domain.RetrievalSettings{ChatTopK: chatTopK, CompareTopK: compareTopK}
	return s.Save(settings)
}

// SetDigitFixes replaces the chapter-marker artifact table.
// An empty list disables artifact repair.
func (s *SettingsService) SetDigitFixes(pairs []string) error {
	fixes, err := domain.ParseDigitFixes(pairs)
	if err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chapters.DigitFixes = fixes
	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current generation configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt treats a stored zero as a value; only a missing key takes the default.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// envKey returns the API key for provider from the environment.
// The generic variable wins over the vendor one.
func (s *SettingsService) envKey(provider domain.AIProvider, generic string) string {
	if !provider.RequiresAPIKey() {
		return ""
	}
	if key := s.getenv(generic); key != "" {
		return key
	}
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicAPIKey)
	default:
		return ""
	}
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
