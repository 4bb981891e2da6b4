package driving

import "github.com/custodia-labs/marginalia/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetLLMProvider configures the generation backend.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetEmbeddingProvider configures the embedding backend.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetChunking updates the chunk size and overlap.
	SetChunking(size, overlap int) error

	// SetRetrieval updates the chat and comparison retrieval depth.
	SetRetrieval(chatTopK, compareTopK int) error

	// SetDigitFixes replaces the chapter-marker artifact table ("s=5" pairs).
	SetDigitFixes(pairs []string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig pings the configured generation backend.
	ValidateLLMConfig() error

	// ValidateEmbeddingConfig pings the configured embedding backend.
	ValidateEmbeddingConfig() error
}
