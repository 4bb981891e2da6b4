package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var (
	searchDocs   []string
	searchTopK   int
	searchFormat string

	grepDocs   []string
	grepLimit  int
	grepFormat string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the passages closest to a query",
	Long: `Runs a similarity search over the chunk index and prints the closest
excerpts, most relevant first. Lower distance means closer.

Restrict the search with --doc, once per document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var grepCmd = &cobra.Command{
	Use:   "grep [keywords]",
	Short: "Keyword search over passages",
	Long: `Searches the keyword passage index for exact terms, names and phrases.
Use quotes inside the query for a phrase: marginalia grep '"white whale"'.`,
	Args: cobra.ExactArgs(1),
	RunE: runGrep,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchDocs, "doc", "d", nil, "restrict to a document (repeatable)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", formatText, "output format: text, json or yaml")

	grepCmd.Flags().StringSliceVarP(&grepDocs, "doc", "d", nil, "restrict to a document (repeatable)")
	grepCmd.Flags().IntVarP(&grepLimit, "limit", "n", 10, "maximum number of results")
	grepCmd.Flags().StringVarP(&grepFormat, "format", "f", formatText, "output format: text, json or yaml")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(grepCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	if err := validateFormat(searchFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	scope, err := resolveScope(ctx, searchDocs)
	if err != nil {
		return err
	}

	results, err := indexService.Search(ctx, args[0], domain.SearchOptions{
		DocIDs: scope,
		TopK:   searchTopK,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchFormat != formatText {
		if results == nil {
			results = []domain.SearchResult{}
		}
		return printStructured(cmd, searchFormat, results)
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  %s\n", formatSource(i, results[i]))
		cmd.Printf("      %s\n", preview(results[i].Content, previewLength))
		cmd.Println()
	}
	return nil
}

func runGrep(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	if err := validateFormat(grepFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	scope, err := resolveScope(ctx, grepDocs)
	if err != nil {
		return err
	}

	passages, err := indexService.SearchPassages(ctx, args[0], scope, grepLimit)
	if err != nil {
		return fmt.Errorf("keyword search failed: %w", err)
	}

	if grepFormat != formatText {
		if passages == nil {
			passages = []domain.Passage{}
		}
		return printStructured(cmd, grepFormat, passages)
	}

	if len(passages) == 0 {
		cmd.Println("No passages found.")
		return nil
	}

	for i, p := range passages {
		cmd.Printf("  [%d] %s, chunk %d (score %.2f)\n", i+1, p.DocumentName, p.ChunkIndex+1, p.Score)
		cmd.Printf("      %s\n", preview(p.Content, previewLength))
		cmd.Println()
	}
	return nil
}
