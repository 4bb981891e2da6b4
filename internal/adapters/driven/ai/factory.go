// Package ai provides factory functions for creating generation and
// embedding adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	localembed "github.com/custodia-labs/marginalia/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/marginalia/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/marginalia/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/marginalia/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/marginalia/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/marginalia/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/llm/throttle"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for connectivity validation.
const pingTimeout = 5 * time.Second

// CreateLLMService builds the generation backend named by settings.
// An unknown, empty, or embedding-only provider fails with
// domain.ErrInvalidConfig. A hosted provider without a key fails with
// domain.ErrInvalidCredentials.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no generation settings", domain.ErrInvalidConfig)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
			Limiter:   throttle.ForProvider(domain.AIProviderOpenAI),
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
			Limiter:   throttle.ForProvider(domain.AIProviderAnthropic),
		})

	case domain.AIProviderLocal:
		return nil, fmt.Errorf("%w: %s only provides embeddings; use ollama, openai or anthropic for generation",
			domain.ErrInvalidConfig, settings.Provider)

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", domain.ErrInvalidConfig, settings.Provider)
	}
}

// CreateEmbeddingService builds the embedding backend named by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrInvalidConfig)
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return localembed.NewEmbeddingService(settings.Dimensions)

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not provide embeddings; use local, ollama or openai",
			domain.ErrInvalidConfig)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrInvalidConfig, settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and checks
// it answers. Failures wrap domain.ErrEmbeddingUnavailable with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'marginalia settings embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'marginalia settings embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}
