package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration value that cannot be used,
	// such as a non-positive chunk size or an unknown backend name.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates a file type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the generation backend is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Similarity search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrPassageIndexUnavailable indicates the keyword passage index is not configured.
	ErrPassageIndexUnavailable = errors.New("passage index unavailable")

	// ErrNoChapters indicates chapter detection found no boundaries.
	// Callers treat it as "undetectable", never as a failure of the document.
	ErrNoChapters = errors.New("no chapters detected")

	// Generation error kinds. Every failed generation call carries exactly one.

	// ErrMissingDependency indicates the backend runtime or model is unavailable.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrConnectionFailure indicates the local backend could not be reached.
	ErrConnectionFailure = errors.New("connection failure")

	// ErrInvalidCredentials indicates a hosted backend rejected the API key.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProviderError indicates any other backend-reported failure.
	ErrProviderError = errors.New("provider error")
)
