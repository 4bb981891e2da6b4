// Package mcp provides an MCP (Model Context Protocol) server adapter for Marginalia.
// It lets AI assistants search, question and compare the imported documents.
package mcp

import "errors"

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")

// ErrServiceUnavailable is returned by tools whose backing service is not configured.
var ErrServiceUnavailable = errors.New("mcp: service not configured")
