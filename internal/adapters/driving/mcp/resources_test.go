package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "marginalia://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "chapter URI is not a document",
			uri:      "marginalia://documents/doc-456/chapters",
			expected: "",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func TestExtractChapterRef(t *testing.T) {
	tests := []struct {
		uri   string
		docID string
		index int
		ok    bool
	}{
		{uri: "marginalia://documents/moby/chapters", docID: "moby", index: -1, ok: true},
		{uri: "marginalia://documents/moby/chapters/3", docID: "moby", index: 3, ok: true},
		{uri: "marginalia://documents/moby/chapters/x", ok: false},
		{uri: "marginalia://documents/moby/chapters/-1", ok: false},
		{uri: "marginalia://documents/moby", ok: false},
		{uri: "marginalia://documents//chapters", ok: false},
		{uri: "other://documents/moby/chapters", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			docID, index, ok := extractChapterRef(tt.uri)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.docID, docID)
				assert.Equal(t, tt.index, index)
			}
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("marginalia://documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns documents successfully", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.DocumentSummary{
			{ID: "doc-1", Name: "Emma", Path: "/books/emma.txt", CharCount: 120},
			{ID: "doc-2", Name: "Persuasion"},
		}}
		server := newTestServer(t, &Ports{Document: docs})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("marginalia://documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "doc-1")
		assert.Contains(t, result.Contents[0].Text, "/books/emma.txt")
		assert.Contains(t, result.Contents[0].Text, "Persuasion")
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("handles empty document list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{documents: []domain.DocumentSummary{}}})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("marginalia://documents"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: errors.New("storage error")}})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("marginalia://documents"))
		assert.ErrorContains(t, err, "listing documents")
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("marginalia://documents/doc-123"))
		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("marginalia://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("returns content successfully", func(t *testing.T) {
		docs := &mockDocumentService{document: &domain.Document{ID: "doc-123", Content: "It is a truth."}}
		server := newTestServer(t, &Ports{Document: docs})

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("marginalia://documents/doc-123"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "It is a truth.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("returns error on get failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: domain.ErrNotFound}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("marginalia://documents/doc-123"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorContains(t, err, "getting document content")
	})
}

func TestServer_handleChapterResources(t *testing.T) {
	ctx := context.Background()
	analysis := &mockAnalysisService{
		spans: []domain.ChapterSpan{{Index: 0, Number: "1", Title: "Loomings"}},
		text:  "CHAPTER 1\nLoomings\nCall me Ishmael.",
	}
	server := newTestServer(t, &Ports{Analysis: analysis})

	result, err := server.handleChaptersResource(ctx, makeReadResourceRequest("marginalia://documents/moby/chapters"))
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "Loomings")

	result, err = server.handleChapterContentResource(ctx, makeReadResourceRequest("marginalia://documents/moby/chapters/0"))
	require.NoError(t, err)
	assert.Equal(t, analysis.text, result.Contents[0].Text)

	_, err = server.handleChaptersResource(ctx, makeReadResourceRequest("marginalia://documents/moby/chapters/0"))
	assert.Error(t, err)
	_, err = server.handleChapterContentResource(ctx, makeReadResourceRequest("marginalia://documents/moby/chapters"))
	assert.Error(t, err)

	noAnalysis := newTestServer(t, &Ports{})
	_, err = noAnalysis.handleChaptersResource(ctx, makeReadResourceRequest("marginalia://documents/moby/chapters"))
	assert.Error(t, err)
}
