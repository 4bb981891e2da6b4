package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

var (
	_ driving.IndexService    = (*mockIndexService)(nil)
	_ driving.ChatService     = (*mockChatService)(nil)
	_ driving.DocumentService = (*mockDocumentService)(nil)
	_ driving.AnalysisService = (*mockAnalysisService)(nil)
	_ driving.SettingsService = (*mockSettingsService)(nil)
	_ driving.StatsService    = (*mockStatsService)(nil)
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	results   []domain.SearchResult
	passages  []domain.Passage
	chunks    []domain.Chunk
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
	lastScope []string
	lastLimit int
}

func (m *mockIndexService) AddDocument(_ context.Context, _, _, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) DeleteDocument(_ context.Context, _ string) (bool, error) {
	return false, m.err
}

func (m *mockIndexService) IsIndexed(_ context.Context, _ string) (bool, error) {
	return len(m.chunks) > 0, m.err
}

func (m *mockIndexService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockIndexService) GetAllChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockIndexService) SearchPassages(_ context.Context, query string, docIDs []string, limit int) ([]domain.Passage, error) {
	m.lastQuery = query
	m.lastScope = docIDs
	m.lastLimit = limit
	return m.passages, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer       *domain.Answer
	comparison   *domain.Comparison
	err          error
	lastQuestion string
	lastScope    []string
	lastTopK     int
}

func (m *mockChatService) Ask(_ context.Context, question string, docIDs []string, topK int) (*domain.Answer, error) {
	m.lastQuestion = question
	m.lastScope = docIDs
	m.lastTopK = topK
	return m.answer, m.err
}

func (m *mockChatService) Compare(
	_ context.Context, question string, docIDs []string, topK int,
) (*domain.Comparison, error) {
	m.lastQuestion = question
	m.lastScope = docIDs
	m.lastTopK = topK
	return m.comparison, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentSummary
	content   map[string]string
	err       error
	importErr map[string]error

	imported   []string
	textName   string
	textBody   string
	renamed    map[string]string
	reindexed  []string
	deleted    []string
	byPath     map[string]domain.DocumentSummary
	replaceAll bool
}

func (m *mockDocumentService) Import(_ context.Context, path string) (*domain.ImportResult, error) {
	if err := m.importErr[path]; err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	m.imported = append(m.imported, path)
	name := path[strings.LastIndex(path, "/")+1:]
	return &domain.ImportResult{
		Document: domain.DocumentSummary{ID: "id-" + name, Name: name, Path: path},
		Chunks:   3,
		Replaced: m.replaceAll,
	}, nil
}

func (m *mockDocumentService) ImportText(_ context.Context, name, text string) (*domain.ImportResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.textName = name
	m.textBody = text
	return &domain.ImportResult{
		Document: domain.DocumentSummary{ID: "text-1", Name: name},
		Chunks:   1,
	}, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, d := range m.documents {
		if d.ID == id {
			return &domain.Document{
				ID:        d.ID,
				Name:      d.Name,
				Path:      d.Path,
				MIMEType:  d.MIMEType,
				Content:   m.content[id],
				CreatedAt: d.CreatedAt,
				UpdatedAt: d.CreatedAt,
			}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) FindByPath(_ context.Context, path string) (*domain.DocumentSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	if d, ok := m.byPath[path]; ok {
		return &d, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Rename(_ context.Context, id, name string) error {
	if m.err != nil {
		return m.err
	}
	if m.renamed == nil {
		m.renamed = make(map[string]string)
	}
	m.renamed[id] = name
	return nil
}

func (m *mockDocumentService) Reindex(_ context.Context, id string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.reindexed = append(m.reindexed, id)
	return 7, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	spans        []domain.ChapterSpan
	text         string
	outcomes     []domain.ChapterOutcome
	timeline     *domain.Timeline
	answer       string
	err          error
	detected     bool
	lastDocID    string
	lastIndex    int
	lastQuestion string
	progress     []domain.Progress
}

func (m *mockAnalysisService) Chapters(_ context.Context, docID string) ([]domain.ChapterSpan, error) {
	m.lastDocID = docID
	return m.spans, m.err
}

func (m *mockAnalysisService) DetectChapters(_ context.Context, docID string) ([]domain.ChapterSpan, error) {
	m.lastDocID = docID
	m.detected = true
	return m.spans, m.err
}

func (m *mockAnalysisService) ChapterText(_ context.Context, docID string, index int) (string, error) {
	m.lastDocID = docID
	m.lastIndex = index
	return m.text, m.err
}

func (m *mockAnalysisService) SummariseChapters(
	_ context.Context, docID string, progress domain.ProgressFunc,
) ([]domain.ChapterOutcome, error) {
	m.lastDocID = docID
	m.report(progress, len(m.outcomes))
	return m.outcomes, m.err
}

func (m *mockAnalysisService) BuildTimeline(
	_ context.Context, docID string, progress domain.ProgressFunc,
) (*domain.Timeline, error) {
	m.lastDocID = docID
	if m.timeline != nil {
		m.report(progress, len(m.timeline.Events))
	}
	return m.timeline, m.err
}

func (m *mockAnalysisService) AskChapter(_ context.Context, docID string, index int, question string) (string, error) {
	m.lastDocID = docID
	m.lastIndex = index
	m.lastQuestion = question
	return m.answer, m.err
}

func (m *mockAnalysisService) report(progress domain.ProgressFunc, total int) {
	if progress == nil {
		return
	}
	for i := 1; i <= total; i++ {
		p := domain.Progress{Step: i, Total: total, Message: "step"}
		m.progress = append(m.progress, p)
		progress(p)
	}
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	err         error
	validateErr error

	llmProvider   domain.AIProvider
	llmModel      string
	llmKey        string
	embedProvider domain.AIProvider
	embedModel    string
	digitFixes    []string
	validated     int
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if m.err != nil {
		return m.err
	}
	m.llmProvider, m.llmModel, m.llmKey = provider, model, apiKey
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.embedProvider, m.embedModel = provider, model
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	return nil
}

func (m *mockSettingsService) SetChunking(size, overlap int) error {
	c := domain.ChunkingSettings{Size: size, Overlap: overlap}
	if err := c.Validate(); err != nil {
		return err
	}
	m.settings.Chunking = c
	return m.err
}

func (m *mockSettingsService) SetRetrieval(chatTopK, compareTopK int) error {
	m.settings.Retrieval = domain.RetrievalSettings{ChatTopK: chatTopK, CompareTopK: compareTopK}
	return m.err
}

func (m *mockSettingsService) SetDigitFixes(pairs []string) error {
	fixes, err := domain.ParseDigitFixes(pairs)
	if err != nil {
		return err
	}
	m.digitFixes = pairs
	m.settings.Chapters.DigitFixes = fixes
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	m.validated++
	return m.validateErr
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	m.validated++
	return m.validateErr
}

// mockStatsService is a mock implementation of driving.StatsService.
type mockStatsService struct {
	result  *domain.TextComparison
	err     error
	lastIDs []string
}

func (m *mockStatsService) CompareDocuments(_ context.Context, docIDs []string) (*domain.TextComparison, error) {
	m.lastIDs = docIDs
	return m.result, m.err
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	index    *mockIndexService
	chat     *mockChatService
	document *mockDocumentService
	analysis *mockAnalysisService
	settings *mockSettingsService
	stats    *mockStatsService
}

var testCreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestServices installs mocks with a two-document library and returns
// them with a cleanup function that restores an empty configuration.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		index: &mockIndexService{},
		chat:  &mockChatService{},
		document: &mockDocumentService{
			documents: []domain.DocumentSummary{
				{ID: "doc-1111", Name: "Moby Dick", Path: "/books/moby.txt", MIMEType: "text/plain",
					CharCount: 1200, CreatedAt: testCreatedAt},
				{ID: "doc-2222", Name: "Walden", MIMEType: "text/markdown", CharCount: 800, CreatedAt: testCreatedAt},
			},
			content: map[string]string{"doc-1111": "Call me Ishmael.", "doc-2222": "I went to the woods."},
		},
		analysis: &mockAnalysisService{},
		settings: newMockSettingsService(),
		stats:    &mockStatsService{},
	}

	SetServices(Services{
		Index:    ts.index,
		Chat:     ts.chat,
		Document: ts.document,
		Analysis: ts.analysis,
		Settings: ts.settings,
		Stats:    ts.stats,
	})

	return ts, func() { SetServices(Services{}) }
}

// resetFlags restores every command flag variable to its default.
func resetFlags() {
	verbose = false

	importName, importStdin = "", false

	docsFormat, docsShowContent, docsReindexAll = formatText, false, false

	searchDocs, searchTopK, searchFormat = nil, 10, formatText
	grepDocs, grepLimit, grepFormat = nil, 10, formatText

	askDocs, askTopK, askFormat, askSources = nil, 0, formatText, true
	compareDocs, compareTopK, compareFormat = nil, 0, formatText

	chaptersFormat, summaryFormat, timelineFormat = formatText, formatText, formatText
	statsFormat, versionFormat = formatText, formatText

	providerFlag, modelFlag, apiKeyFlag, skipValidate = "", "", "", false
	chunkSizeFlag, chunkOverlapFlag = 0, -1
	chatTopKFlag, compareTopKFlag = 0, 0
	digitFixesReset, digitFixesClear = false, false
	promptsResetAll = false

	watchScan = true
}

// executeCommand runs the root command with args and returns stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	}()

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}
