package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats [doc] [doc]...",
	Short: "Compare the vocabulary of documents",
	Long: `Computes lexical statistics without an LLM: key themes per document,
pairwise vocabulary similarity, passages the documents share, and
word frequencies.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsFormat, "format", "f", formatText, "output format: text, json or yaml")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsService == nil {
		return errors.New("stats service not configured")
	}
	if err := validateFormat(statsFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	ids, err := resolveScope(ctx, args)
	if err != nil {
		return err
	}

	result, err := statsService.CompareDocuments(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to compare documents: %w", err)
	}

	if statsFormat != formatText {
		return printStructured(cmd, statsFormat, result)
	}

	cmd.Printf("Documents: %s\n", strings.Join(result.Documents, ", "))

	cmd.Println("\n[Similarity]")
	for _, pair := range sortedKeys(result.Similarities) {
		cmd.Printf("  %s: %.3f\n", pair, result.Similarities[pair])
	}

	cmd.Println("\n[Themes]")
	for _, name := range result.Documents {
		cmd.Printf("  %s: %s\n", name, strings.Join(result.Themes[name], ", "))
	}
	if len(result.SharedThemes) > 0 {
		cmd.Printf("  Shared: %s\n", strings.Join(result.SharedThemes, ", "))
	}

	cmd.Println("\n[Common passages]")
	if len(result.CommonPassages) == 0 {
		cmd.Println("  (none)")
	}
	for _, p := range result.CommonPassages {
		cmd.Printf("  %q in %s\n", p.Passage, strings.Join(p.Documents, ", "))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
