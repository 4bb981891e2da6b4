package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var (
	askDocs    []string
	askTopK    int
	askFormat  string
	askSources bool

	compareDocs   []string
	compareTopK   int
	compareFormat string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from your documents",
	Long: `Retrieves the passages closest to the question and asks the LLM to answer
from them alone. The excerpts used are listed under the answer.

Restrict the question to some documents with --doc, once per document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var compareCmd = &cobra.Command{
	Use:   "compare [question]",
	Short: "Compare how documents treat a question",
	Long: `Retrieves excerpts from each document separately and asks for an answer
that attributes every point to its document. Needs at least two --doc flags.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askDocs, "doc", "d", nil, "restrict to a document (repeatable)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "excerpts to retrieve (0 uses the configured depth)")
	askCmd.Flags().StringVarP(&askFormat, "format", "f", formatText, "output format: text, json or yaml")
	askCmd.Flags().BoolVar(&askSources, "sources", true, "list the excerpts the answer used")

	compareCmd.Flags().StringSliceVarP(&compareDocs, "doc", "d", nil, "document to compare (at least two)")
	compareCmd.Flags().IntVarP(&compareTopK, "top-k", "k", 0, "excerpts per document (0 uses the configured depth)")
	compareCmd.Flags().StringVarP(&compareFormat, "format", "f", formatText, "output format: text, json or yaml")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(compareCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	if err := validateFormat(askFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	scope, err := resolveScope(ctx, askDocs)
	if err != nil {
		return err
	}

	answer, err := chatService.Ask(ctx, strings.Join(args, " "), scope, askTopK)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	if askFormat != formatText {
		return printStructured(cmd, askFormat, answer)
	}

	cmd.Println(answer.Text)
	if askSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i := range answer.Sources {
			cmd.Printf("  %s\n", formatSource(i, answer.Sources[i]))
		}
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	if err := validateFormat(compareFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	scope, err := resolveScope(ctx, compareDocs)
	if err != nil {
		return err
	}
	if len(scope) < 2 {
		return fmt.Errorf("%w: compare needs at least two documents, use --doc twice", domain.ErrInvalidInput)
	}

	comparison, err := chatService.Compare(ctx, strings.Join(args, " "), scope, compareTopK)
	if err != nil {
		return fmt.Errorf("failed to compare: %w", err)
	}

	if compareFormat != formatText {
		return printStructured(cmd, compareFormat, comparison)
	}

	cmd.Println(comparison.Text)
	cmd.Println()
	cmd.Println("Excerpts:")
	for _, group := range comparison.Documents {
		cmd.Printf("  %s: %d excerpts\n", group.DocumentName, len(group.Results))
		for i := range group.Results {
			cmd.Printf("    - chunk %d/%d: %s\n",
				group.Results[i].Metadata.ChunkIndex+1,
				group.Results[i].Metadata.TotalChunks,
				preview(group.Results[i].Content, 80))
		}
	}
	return nil
}
