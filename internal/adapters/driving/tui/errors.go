package tui

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("tui: chat service is required")

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("tui: index service is required")

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("tui: document service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
