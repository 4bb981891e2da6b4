package domain

import (
	"errors"
	"fmt"
)

// GenerationError is the normalised failure of a generation call.
// Kind is one of ErrMissingDependency, ErrConnectionFailure,
// ErrInvalidCredentials or ErrProviderError; errors.Is matches it.
type GenerationError struct {
	// Kind is the taxonomy sentinel.
	Kind error

	// Provider is the backend that failed.
	Provider AIProvider

	// Detail is the backend-specific message.
	Detail string

	// Err is the underlying cause, if any.
	Err error
}

// NewGenerationError builds a GenerationError.
func NewGenerationError(kind error, provider AIProvider, detail string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Provider: provider, Detail: detail, Err: cause}
}

// Error implements error.
func (e *GenerationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Provider, e.Kind, e.Detail)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// GenerationErrorKind reports the taxonomy kind of err.
// Errors that did not come from a generation backend map to ErrProviderError.
func GenerationErrorKind(err error) error {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) && genErr.Kind != nil {
		return genErr.Kind
	}
	return ErrProviderError
}
