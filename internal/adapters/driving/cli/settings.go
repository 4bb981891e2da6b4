package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var errSettingsServiceMissing = errors.New("settings service not configured")

var (
	providerFlag string
	modelFlag    string
	apiKeyFlag   string
	skipValidate bool

	chunkSizeFlag    int
	chunkOverlapFlag int

	chatTopKFlag    int
	compareTopKFlag int

	digitFixesReset bool
	digitFixesClear bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM, the embedding provider, chunking,
retrieval depth and chapter detection.

Settings live in ~/.marginalia/config.toml. API keys may instead come from
MARGINALIA_LLM_API_KEY, MARGINALIA_EMBEDDING_API_KEY, OPENAI_API_KEY or
ANTHROPIC_API_KEY, including from a .env file in the working directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the LLM and embedding providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Configure the LLM that answers questions and analyses chapters.
Without --provider the command asks interactively.`,
	RunE: runSettingsLLM,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used for similarity search.
Stored vectors belong to the old model; run 'marginalia docs reindex --all'
after changing it. Without --provider the command asks interactively.`,
	RunE: runSettingsEmbedding,
}

var settingsChunkingCmd = &cobra.Command{
	Use:   "chunking",
	Short: "Set chunk size and overlap",
	Long: `Set the chunk window and how far each window reaches back into the
previous one, both in characters. New values apply to documents imported
or reindexed afterwards.`,
	Args: cobra.NoArgs,
	RunE: runSettingsChunking,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Set how many excerpts questions retrieve",
	Args:  cobra.NoArgs,
	RunE:  runSettingsRetrieval,
}

var settingsDigitFixesCmd = &cobra.Command{
	Use:   "digit-fixes [artifact=digits]...",
	Short: "Set the chapter number recognition fixes",
	Long: `Scanned books often misread chapter numbers, e.g. "Chapter s" for
"Chapter 5". Each pair maps such an artifact to the digits it stands for.

Without arguments the current table is printed.

Examples:
  marginalia settings digit-fixes s=5 l=1 o=0
  marginalia settings digit-fixes --reset
  marginalia settings digit-fixes --clear`,
	RunE: runSettingsDigitFixes,
}

func init() {
	for _, c := range []*cobra.Command{settingsLLMCmd, settingsEmbeddingCmd} {
		c.Flags().StringVar(&providerFlag, "provider", "", "provider name, skips the prompts")
		c.Flags().StringVar(&modelFlag, "model", "", "model name (default depends on provider)")
		c.Flags().StringVar(&apiKeyFlag, "api-key", "", "API key for hosted providers")
		c.Flags().BoolVar(&skipValidate, "no-validate", false, "do not ping the provider")
	}
	settingsChunkingCmd.Flags().IntVar(&chunkSizeFlag, "size", 0, "chunk size in characters (0 keeps the current value)")
	settingsChunkingCmd.Flags().IntVar(&chunkOverlapFlag, "overlap", -1, "chunk overlap in characters (-1 keeps the current value)")
	settingsRetrievalCmd.Flags().IntVar(&chatTopKFlag, "chat-top-k", 0, "excerpts per question (0 keeps the current value)")
	settingsRetrievalCmd.Flags().IntVar(&compareTopKFlag, "compare-top-k", 0,
		"excerpts per document when comparing (0 keeps the current value)")
	settingsDigitFixesCmd.Flags().BoolVar(&digitFixesReset, "reset", false, "restore the built-in table")
	settingsDigitFixesCmd.Flags().BoolVar(&digitFixesClear, "clear", false, "disable recognition fixes")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsChunkingCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	settingsCmd.AddCommand(settingsDigitFixesCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider == domain.AIProviderLocal {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Chat top-k: %d\n", settings.Retrieval.ChatTopK)
	cmd.Printf("  Compare top-k: %d\n", settings.Retrieval.CompareTopK)
	cmd.Println()

	cmd.Println("[Chapters]")
	cmd.Printf("  Digit fixes: %s\n", formatFixes(settings.Chapters.DigitFixes))

	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func formatFixes(fixes map[string]string) string {
	if len(fixes) == 0 {
		return "(none)"
	}
	pairs := domain.FormatDigitFixes(fixes)
	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	cmd.Println("Marginalia Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("The LLM answers questions and analyses chapters.")
	cmd.Println()
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("Embeddings power similarity search. The built-in local embedder needs no setup.")
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Println("If you changed the embedding provider, run 'marginalia docs reindex --all'.")
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}
	if providerFlag != "" {
		return applyProvider(cmd, "LLM", domain.AIProvider(providerFlag),
			settingsService.SetLLMProvider, settingsService.ValidateLLMConfig)
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}
	if providerFlag != "" {
		return applyProvider(cmd, "embedding", domain.AIProvider(providerFlag),
			settingsService.SetEmbeddingProvider, settingsService.ValidateEmbeddingConfig)
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

// applyProvider configures a provider from flags.
func applyProvider(
	cmd *cobra.Command,
	kind string,
	provider domain.AIProvider,
	set func(domain.AIProvider, string, string) error,
	validate func() error,
) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidConfig, provider)
	}
	if err := set(provider, modelFlag, apiKeyFlag); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", kind, err)
	}
	if !skipValidate {
		if err := validate(); err != nil {
			return fmt.Errorf("%s configuration validation failed: %w", kind, err)
		}
	}
	cmd.Printf("%s provider configured: %s\n", kind, provider.Description())
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.EmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.GenerationProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultLLMModels[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

func runSettingsChunking(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	size, overlap := settings.Chunking.Size, settings.Chunking.Overlap
	if chunkSizeFlag != 0 {
		size = chunkSizeFlag
	}
	if chunkOverlapFlag >= 0 {
		overlap = chunkOverlapFlag
	}

	if err := settingsService.SetChunking(size, overlap); err != nil {
		return fmt.Errorf("failed to set chunking: %w", err)
	}

	cmd.Printf("Chunking set to %d characters with %d overlap.\n", size, overlap)
	cmd.Println("Run 'marginalia docs reindex --all' to apply it to existing documents.")
	return nil
}

func runSettingsRetrieval(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	chat, compare := settings.Retrieval.ChatTopK, settings.Retrieval.CompareTopK
	if chatTopKFlag != 0 {
		chat = chatTopKFlag
	}
	if compareTopKFlag != 0 {
		compare = compareTopKFlag
	}

	if err := settingsService.SetRetrieval(chat, compare); err != nil {
		return fmt.Errorf("failed to set retrieval depth: %w", err)
	}

	cmd.Printf("Retrieval set to %d excerpts per question and %d per compared document.\n", chat, compare)
	return nil
}

func runSettingsDigitFixes(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	var pairs []string
	switch {
	case digitFixesReset && digitFixesClear:
		return fmt.Errorf("%w: --reset and --clear are exclusive", domain.ErrInvalidInput)
	case (digitFixesReset || digitFixesClear) && len(args) > 0:
		return fmt.Errorf("%w: pass pairs or a flag, not both", domain.ErrInvalidInput)
	case digitFixesReset:
		pairs = domain.FormatDigitFixes(domain.DefaultDigitFixes())
	case digitFixesClear:
		pairs = []string{}
	case len(args) > 0:
		pairs = args
	default:
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cmd.Printf("Digit fixes: %s\n", formatFixes(settings.Chapters.DigitFixes))
		return nil
	}

	if err := settingsService.SetDigitFixes(pairs); err != nil {
		return fmt.Errorf("failed to set digit fixes: %w", err)
	}

	fixes, err := domain.ParseDigitFixes(pairs)
	if err != nil {
		return err
	}
	cmd.Printf("Digit fixes set to: %s\n", formatFixes(fixes))
	cmd.Println("Run 'marginalia chapters detect <doc>' to apply them to cached chapters.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, else falls back to
// a plain line from reader.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
