package driven

import "github.com/custodia-labs/marginalia/internal/core/domain"

// AIConfigValidator checks provider settings against the live backend
// before they are saved.
type AIConfigValidator interface {
	// ValidateEmbedding reaches the provider and embeds a probe text.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM reaches the generation provider. No tokens are generated.
	ValidateLLM(config *domain.LLMSettings) error
}
