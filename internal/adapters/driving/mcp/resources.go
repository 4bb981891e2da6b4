package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for Marginalia resources.
	uriScheme = "marginalia://"

	documentsPrefix = uriScheme + "documents/"
	chaptersSegment = "/chapters"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the catalogue.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "List of all imported documents",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for document content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsPrefix + "{documentId}",
		Name:        "document-content",
		Description: "Full text of a specific document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)

	// Template for the chapter list of a document.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsPrefix + "{documentId}/chapters",
		Name:        "document-chapters",
		Description: "Detected chapters of a specific document",
		MIMEType:    "application/json",
	}, s.handleChaptersResource)

	// Template for chapter text.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsPrefix + "{documentId}/chapters/{index}",
		Name:        "chapter-content",
		Description: "Text of one chapter",
		MIMEType:    "text/plain",
	}, s.handleChapterContentResource)
}

// handleDocumentsResource returns the document catalogue.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return textResult(req.Params.URI, "application/json", "[]"), nil
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Path      string `json:"path"`
		CharCount int    `json:"char_count"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:        docs[i].ID,
			Name:      docs[i].Name,
			Path:      docs[i].Path,
			CharCount: docs[i].CharCount,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document content: %w", err)
	}
	return textResult(req.Params.URI, "text/plain", doc.Content), nil
}

// handleChaptersResource returns the chapter spans of a document.
func (s *Server) handleChaptersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Analysis == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID, index, ok := extractChapterRef(req.Params.URI)
	if !ok || index >= 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	spans, err := s.ports.Analysis.Chapters(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("detecting chapters: %w", err)
	}

	data, err := json.MarshalIndent(spans, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling chapters: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

// handleChapterContentResource returns the text of one chapter.
func (s *Server) handleChapterContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Analysis == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID, index, ok := extractChapterRef(req.Params.URI)
	if !ok || index < 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := s.ports.Analysis.ChapterText(ctx, docID, index)
	if err != nil {
		return nil, fmt.Errorf("getting chapter text: %w", err)
	}
	return textResult(req.Params.URI, "text/plain", text), nil
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}

// extractDocumentID extracts the document ID from a URI like marginalia://documents/{documentId}.
func extractDocumentID(uri string) string {
	if !strings.HasPrefix(uri, documentsPrefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, documentsPrefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

// extractChapterRef parses marginalia://documents/{id}/chapters[/{index}].
// The index is -1 for the chapter list.
func extractChapterRef(uri string) (docID string, index int, ok bool) {
	if !strings.HasPrefix(uri, documentsPrefix) {
		return "", 0, false
	}
	rest := strings.TrimPrefix(uri, documentsPrefix)

	docID, tail, found := strings.Cut(rest, chaptersSegment)
	if !found || docID == "" || strings.Contains(docID, "/") {
		return "", 0, false
	}
	if tail == "" {
		return docID, -1, true
	}

	n, err := strconv.Atoi(strings.TrimPrefix(tail, "/"))
	if err != nil || !strings.HasPrefix(tail, "/") || n < 0 {
		return "", 0, false
	}
	return docID, n, true
}
