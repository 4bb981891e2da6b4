// Package cli implements the marginalia command line.
//
// Commands run against the driving ports installed with SetServices.
// A command whose service is missing fails with "<name> service not configured".
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// version is set at build time.
var version = "dev"

// verbose enables debug logging for every command.
var verbose bool

// Services are the driving ports the commands run against.
type Services struct {
	Index    driving.IndexService
	Chat     driving.ChatService
	Document driving.DocumentService
	Analysis driving.AnalysisService
	Settings driving.SettingsService
	Stats    driving.StatsService

	// Prompts manages the editable prompt files. Optional.
	Prompts PromptFiles

	// Supports reports whether a file can be imported. Nil accepts every file.
	Supports func(path string) bool
}

var (
	indexService    driving.IndexService
	chatService     driving.ChatService
	documentService driving.DocumentService
	analysisService driving.AnalysisService
	settingsService driving.SettingsService
	statsService    driving.StatsService
	promptFiles     PromptFiles
	supportsFile    func(path string) bool
)

var rootCmd = &cobra.Command{
	Use:   "marginalia",
	Short: "Ask questions of your documents",
	Long: `Marginalia imports books and papers, cuts them into overlapping chunks,
detects their chapters and answers questions from the passages it retrieves.

Answers are grounded in the excerpts shown alongside them. Whole-chapter
summaries and timelines send each chapter to the configured LLM verbatim.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices installs the services the commands run against.
func SetServices(s Services) {
	indexService = s.Index
	chatService = s.Chat
	documentService = s.Document
	analysisService = s.Analysis
	settingsService = s.Settings
	statsService = s.Stats
	promptFiles = s.Prompts
	supportsFile = s.Supports
}

// SetVersion sets the version reported by "marginalia version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return withHint(rootCmd.ExecuteContext(ctx))
}

// withHint names the command that fixes a missing backend.
func withHint(err error) error {
	switch {
	case errors.Is(err, domain.ErrLLMUnavailable):
		return fmt.Errorf("%w\nchoose a model with: marginalia settings llm", err)
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return fmt.Errorf("%w\ncheck the embedding backend with: marginalia settings embedding", err)
	default:
		return err
	}
}
