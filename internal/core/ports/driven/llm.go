package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// LLMService is one generation backend behind the gateway.
//
// Backends form a closed set (ollama, openai, anthropic) selected at
// construction. Hosted backends send prompt text to a third-party endpoint.
type LLMService interface {
	// Generate runs a single prompt with a system instruction and returns the text.
	// Failures are *domain.GenerationError values carrying exactly one kind:
	// ErrMissingDependency, ErrConnectionFailure, ErrInvalidCredentials
	// or ErrProviderError. Generate never retries.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)

	// Provider returns the backend variant.
	Provider() domain.AIProvider

	// ModelName returns the model identifier in use.
	ModelName() string

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
