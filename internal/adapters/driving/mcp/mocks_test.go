package mcp

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

var (
	_ driving.IndexService    = (*mockIndexService)(nil)
	_ driving.ChatService     = (*mockChatService)(nil)
	_ driving.DocumentService = (*mockDocumentService)(nil)
	_ driving.AnalysisService = (*mockAnalysisService)(nil)
	_ driving.StatsService    = (*mockStatsService)(nil)
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	results   []domain.SearchResult
	passages  []domain.Passage
	err       error
	lastOpts  domain.SearchOptions
	lastLimit int
}

func (m *mockIndexService) AddDocument(_ context.Context, _, _, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) DeleteDocument(_ context.Context, _ string) (bool, error) {
	return false, m.err
}

func (m *mockIndexService) IsIndexed(_ context.Context, _ string) (bool, error) {
	return false, m.err
}

func (m *mockIndexService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockIndexService) GetAllChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockIndexService) SearchPassages(_ context.Context, _ string, _ []string, limit int) ([]domain.Passage, error) {
	m.lastLimit = limit
	return m.passages, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer     *domain.Answer
	comparison *domain.Comparison
	err        error
}

func (m *mockChatService) Ask(_ context.Context, _ string, _ []string, _ int) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockChatService) Compare(_ context.Context, _ string, _ []string, _ int) (*domain.Comparison, error) {
	return m.comparison, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentSummary
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) Import(_ context.Context, _ string) (*domain.ImportResult, error) {
	return nil, m.err
}

func (m *mockDocumentService) ImportText(_ context.Context, _, _ string) (*domain.ImportResult, error) {
	return nil, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) FindByPath(_ context.Context, _ string) (*domain.DocumentSummary, error) {
	return nil, m.err
}

func (m *mockDocumentService) Rename(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockDocumentService) Reindex(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	spans     []domain.ChapterSpan
	text      string
	answer    string
	err       error
	refreshed bool
}

func (m *mockAnalysisService) Chapters(_ context.Context, _ string) ([]domain.ChapterSpan, error) {
	return m.spans, m.err
}

func (m *mockAnalysisService) DetectChapters(_ context.Context, _ string) ([]domain.ChapterSpan, error) {
	m.refreshed = true
	return m.spans, m.err
}

func (m *mockAnalysisService) ChapterText(_ context.Context, _ string, _ int) (string, error) {
	return m.text, m.err
}

func (m *mockAnalysisService) SummariseChapters(
	_ context.Context, _ string, _ domain.ProgressFunc,
) ([]domain.ChapterOutcome, error) {
	return nil, m.err
}

func (m *mockAnalysisService) BuildTimeline(_ context.Context, _ string, _ domain.ProgressFunc) (*domain.Timeline, error) {
	return nil, m.err
}

func (m *mockAnalysisService) AskChapter(_ context.Context, _ string, _ int, _ string) (string, error) {
	return m.answer, m.err
}

// mockStatsService is a mock implementation of driving.StatsService.
type mockStatsService struct {
	comparison *domain.TextComparison
	err        error
}

func (m *mockStatsService) CompareDocuments(_ context.Context, _ []string) (*domain.TextComparison, error) {
	return m.comparison, m.err
}
