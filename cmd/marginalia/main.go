// Command marginalia imports documents and answers questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/ai"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/config/file"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/passages/textindex"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/cli"
	"github.com/custodia-labs/marginalia/internal/core/assembler"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/services"
	"github.com/custodia-labs/marginalia/internal/logger"
	"github.com/custodia-labs/marginalia/internal/normalisers"
	"github.com/custodia-labs/marginalia/internal/normalisers/docx"
	"github.com/custodia-labs/marginalia/internal/normalisers/html"
	"github.com/custodia-labs/marginalia/internal/normalisers/markdown"
	"github.com/custodia-labs/marginalia/internal/normalisers/pdf"
	"github.com/custodia-labs/marginalia/internal/normalisers/plaintext"
	"github.com/custodia-labs/marginalia/internal/postprocessors"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// envHome overrides the data directory, ~/.marginalia by default.
const envHome = "MARGINALIA_HOME"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is normal.
	_ = godotenv.Load()
	defer logger.Sync()

	home, err := homeDir()
	if err != nil {
		return err
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	store, err := sqlite.NewStore(home)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer store.Close()

	// Keyword search is optional; another process may hold the index.
	var passages driven.PassageIndex
	if idx, err := textindex.Open(filepath.Join(home, "passages")); err != nil {
		logger.Warn("Keyword search disabled: %v", err)
	} else {
		passages = idx
		defer idx.Close()
	}

	chunker, err := postprocessors.NewChunker(settings.Chunking)
	if err != nil {
		return fmt.Errorf("invalid chunking settings: %w", err)
	}
	detector := postprocessors.NewDetector(settings.Chapters)

	// Commands that need a missing backend report it when they run.
	var embedder driven.EmbeddingService
	if svc, err := ai.CreateEmbeddingService(&settings.Embedding); err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
	} else {
		embedder = svc
		defer svc.Close()
	}

	var llm driven.LLMService
	svc, llmErr := ai.CreateLLMService(&settings.LLM)
	if llmErr != nil {
		logger.Warn("LLM provider unavailable: %v", llmErr)
	} else {
		llm = svc
		defer svc.Close()
	}

	asm := assembler.New()
	var promptFiles cli.PromptFiles
	if prompts, err := file.NewPromptStore(filepath.Join(home, "prompts")); err != nil {
		logger.Warn("Using built-in prompts: %v", err)
	} else {
		asm.SetPromptStore(prompts)
		promptFiles = prompts
	}

	registry := normalisers.NewRegistry(plaintext.New(), markdown.New(), html.New(), pdf.New(), docx.New())

	docs := store.DocumentStore()
	chapterCache := store.ChapterCache()

	indexService := services.NewIndexService(chunker, embedder, store.ChunkStore(), passages)
	chatService := services.NewChatService(indexService, llm, asm, docs, settings.Retrieval)
	analysisService := services.NewAnalysisService(docs, chapterCache, detector, llm, asm)
	chatService.SetLLMError(llmErr)
	analysisService.SetLLMError(llmErr)

	cli.SetServices(cli.Services{
		Index:    indexService,
		Chat:     chatService,
		Document: services.NewDocumentService(docs, chapterCache, indexService, registry),
		Analysis: analysisService,
		Settings: settingsService,
		Stats:    services.NewStatsService(docs),
		Prompts:  promptFiles,
		Supports: registry.Supports,
	})
	cli.SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}

func homeDir() (string, error) {
	if dir := os.Getenv(envHome); dir != "" {
		return dir, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(userHome, file.DirName), nil
}
