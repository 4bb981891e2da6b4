package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrPassageIndexUnavailable", ErrPassageIndexUnavailable},
		{"ErrNoChapters", ErrNoChapters},
		{"ErrMissingDependency", ErrMissingDependency},
		{"ErrConnectionFailure", ErrConnectionFailure},
		{"ErrInvalidCredentials", ErrInvalidCredentials},
		{"ErrProviderError", ErrProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}

func TestErrInvalidConfig_Wrapped(t *testing.T) {
	err := fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestGenerationKinds_Distinct(t *testing.T) {
	kinds := []error{ErrMissingDependency, ErrConnectionFailure, ErrInvalidCredentials, ErrProviderError}
	for i, a := range kinds {
		for j, b := range kinds {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}
