package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// defaultPassageLimit is the keyword search limit when none is given.
const defaultPassageLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the text to find similar passages for"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these documents (default all)"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	ChunkIndex   int      `json:"chunk_index"`
	TotalChunks  int      `json:"total_chunks"`
	Distance     *float64 `json:"distance,omitempty"`
	Content      string   `json:"content"`
}

// PassageInput is the input schema for the keyword search tool.
type PassageInput struct {
	Query       string   `json:"query" jsonschema:"keywords or a phrase to look up verbatim"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these documents (default all)"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 10)"`
}

// PassageOutput is the output schema for the keyword search tool.
type PassageOutput struct {
	Passages []domain.Passage `json:"passages"`
	Count    int              `json:"count"`
}

// AskInput is the input schema for the ask and compare tools.
type AskInput struct {
	Question    string   `json:"question" jsonschema:"the question to answer from the documents"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"documents to draw excerpts from (default all for ask)"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"excerpts to retrieve (per document for compare)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string               `json:"answer"`
	Sources []SearchResultOutput `json:"sources"`
}

// CompareOutput is the output schema for the compare tool.
type CompareOutput struct {
	Answer    string                    `json:"answer"`
	Documents []domain.DocumentExcerpts `json:"documents"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents []domain.DocumentSummary `json:"documents"`
	Count     int                      `json:"count"`
}

// ChaptersInput is the input schema for detect_chapters.
type ChaptersInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to split into chapters"`
	Refresh    bool   `json:"refresh,omitempty" jsonschema:"rerun detection instead of using the cache"`
}

// ChaptersOutput is the output schema for detect_chapters.
type ChaptersOutput struct {
	Chapters []domain.ChapterSpan `json:"chapters"`
	Count    int                  `json:"count"`
}

// AskChapterInput is the input schema for ask_chapter.
type AskChapterInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document holding the chapter"`
	Chapter    int    `json:"chapter" jsonschema:"zero-based chapter index from detect_chapters"`
	Question   string `json:"question" jsonschema:"the question to answer from the whole chapter"`
}

// AskChapterOutput is the output schema for ask_chapter.
type AskChapterOutput struct {
	Answer string `json:"answer"`
}

// StatsInput is the input schema for text_statistics.
type StatsInput struct {
	DocumentIDs []string `json:"document_ids" jsonschema:"two or more documents to compare"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the passages most similar in meaning to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_passages",
		Description: "Look up passages containing the given keywords",
	}, s.handleSearchPassages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the imported documents",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question strictly from excerpts of the selected documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare",
		Description: "Compare how two or more documents treat a question, with per-document attribution",
	}, s.handleCompare)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect_chapters",
		Description: "Split a document into chapters",
	}, s.handleDetectChapters)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_chapter",
		Description: "Answer a question from the full text of one chapter",
	}, s.handleAskChapter)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "text_statistics",
		Description: "Compare documents by themes, vocabulary overlap and shared passages",
	}, s.handleTextStatistics)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{DocIDs: input.DocumentIDs, TopK: input.Limit}
	results, err := s.ports.Index.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: toResultOutputs(results),
		Count:   len(results),
	}
	return nil, output, nil
}

// handleSearchPassages handles the search_passages tool invocation.
func (s *Server) handleSearchPassages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PassageInput,
) (*mcp.CallToolResult, PassageOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPassageLimit
	}

	passages, err := s.ports.Index.SearchPassages(ctx, input.Query, input.DocumentIDs, limit)
	if err != nil {
		return nil, PassageOutput{}, err
	}
	if passages == nil {
		passages = []domain.Passage{}
	}
	return nil, PassageOutput{Passages: passages, Count: len(passages)}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Document == nil {
		return nil, ListDocumentsOutput{}, fmt.Errorf("%w: documents", ErrServiceUnavailable)
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}
	return nil, ListDocumentsOutput{Documents: docs, Count: len(docs)}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Chat == nil {
		return nil, AskOutput{}, fmt.Errorf("%w: chat", ErrServiceUnavailable)
	}

	answer, err := s.ports.Chat.Ask(ctx, input.Question, input.DocumentIDs, input.TopK)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer.Text, Sources: toResultOutputs(answer.Sources)}, nil
}

// handleCompare handles the compare tool invocation.
func (s *Server) handleCompare(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, CompareOutput, error) {
	if s.ports.Chat == nil {
		return nil, CompareOutput{}, fmt.Errorf("%w: chat", ErrServiceUnavailable)
	}

	comparison, err := s.ports.Chat.Compare(ctx, input.Question, input.DocumentIDs, input.TopK)
	if err != nil {
		return nil, CompareOutput{}, err
	}
	return nil, CompareOutput{Answer: comparison.Text, Documents: comparison.Documents}, nil
}

// handleDetectChapters handles the detect_chapters tool invocation.
func (s *Server) handleDetectChapters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChaptersInput,
) (*mcp.CallToolResult, ChaptersOutput, error) {
	if s.ports.Analysis == nil {
		return nil, ChaptersOutput{}, fmt.Errorf("%w: analysis", ErrServiceUnavailable)
	}

	var (
		spans []domain.ChapterSpan
		err   error
	)
	if input.Refresh {
		spans, err = s.ports.Analysis.DetectChapters(ctx, input.DocumentID)
	} else {
		spans, err = s.ports.Analysis.Chapters(ctx, input.DocumentID)
	}
	if err != nil {
		return nil, ChaptersOutput{}, err
	}
	if spans == nil {
		spans = []domain.ChapterSpan{}
	}
	return nil, ChaptersOutput{Chapters: spans, Count: len(spans)}, nil
}

// handleAskChapter handles the ask_chapter tool invocation.
func (s *Server) handleAskChapter(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskChapterInput,
) (*mcp.CallToolResult, AskChapterOutput, error) {
	if s.ports.Analysis == nil {
		return nil, AskChapterOutput{}, fmt.Errorf("%w: analysis", ErrServiceUnavailable)
	}

	answer, err := s.ports.Analysis.AskChapter(ctx, input.DocumentID, input.Chapter, input.Question)
	if err != nil {
		return nil, AskChapterOutput{}, err
	}
	return nil, AskChapterOutput{Answer: answer}, nil
}

// handleTextStatistics handles the text_statistics tool invocation.
func (s *Server) handleTextStatistics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatsInput,
) (*mcp.CallToolResult, domain.TextComparison, error) {
	if s.ports.Stats == nil {
		return nil, domain.TextComparison{}, fmt.Errorf("%w: statistics", ErrServiceUnavailable)
	}
	comparison, err := s.ports.Stats.CompareDocuments(ctx, input.DocumentIDs)
	if err != nil {
		return nil, domain.TextComparison{}, err
	}
	return nil, *comparison, nil
}

func toResultOutputs(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		out[i] = SearchResultOutput{
			DocumentID:   results[i].Metadata.DocumentID,
			DocumentName: results[i].Metadata.DocumentName,
			ChunkIndex:   results[i].Metadata.ChunkIndex,
			TotalChunks:  results[i].Metadata.TotalChunks,
			Distance:     results[i].Distance,
			Content:      results[i].Content,
		}
	}
	return out
}
