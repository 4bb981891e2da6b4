package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// defaultValidateTimeout bounds one validation, including the probe embedding.
const defaultValidateTimeout = 15 * time.Second

// probeText is embedded to check that a model really returns vectors.
const probeText = "The margin holds the reader's notes."

// ConfigValidator checks settings against the live provider before they
// are saved.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator with the default timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: defaultValidateTimeout}
}

// WithTimeout returns a copy that gives up after d.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	return &ConfigValidator{timeout: d}
}

// ValidateEmbedding pings the provider and embeds a probe sentence. A model
// that answers with an empty vector, or with a size other than the
// configured Dimensions, is rejected with domain.ErrInvalidConfig.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return err
	}
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return err
	}
	switch want := settings.Dimensions; {
	case len(vec) == 0:
		return fmt.Errorf("%w: %s returned an empty embedding; is it an embedding model?",
			domain.ErrInvalidConfig, svc.ModelName())
	case want > 0 && len(vec) != want:
		return fmt.Errorf("%w: %s returned %d dimensions, expected %d",
			domain.ErrInvalidConfig, svc.ModelName(), len(vec), want)
	}
	return nil
}

// ValidateLLM pings the generation provider without running inference.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return svc.Ping(ctx)
}
