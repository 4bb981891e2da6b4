package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var (
	docsFormat      string
	docsShowContent bool
	docsReindexAll  bool
)

var docsCmd = &cobra.Command{
	Use:     "docs",
	Aliases: []string{"documents"},
	Short:   "Manage the document library",
	Long: `List, inspect, rename, reindex or delete imported documents.

Documents may be referred to by ID, a unique ID prefix, or their name.`,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsShowCmd = &cobra.Command{
	Use:   "show [doc]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

var docsRenameCmd = &cobra.Command{
	Use:   "rename [doc] [name]",
	Short: "Rename a document",
	Long:  `Changes the display name. Index entries are restamped so sources show the new name.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runDocsRename,
}

var docsReindexCmd = &cobra.Command{
	Use:   "reindex [doc]",
	Short: "Rebuild the index entries of a document",
	Long:  `Re-chunks and re-embeds a document. Use --all after changing chunking or embedding settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocsReindex,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc]",
	Short: "Delete a document",
	Long:  `Removes the document with its index entries and cached chapters.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	docsListCmd.Flags().StringVarP(&docsFormat, "format", "f", formatText, "output format: text, json or yaml")
	docsShowCmd.Flags().BoolVarP(&docsShowContent, "content", "c", false, "print the full text")
	docsReindexCmd.Flags().BoolVar(&docsReindexAll, "all", false, "reindex every document")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsCmd.AddCommand(docsRenameCmd)
	docsCmd.AddCommand(docsReindexCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}
	if err := validateFormat(docsFormat); err != nil {
		return err
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if docsFormat != formatText {
		if docs == nil {
			docs = []domain.DocumentSummary{}
		}
		return printStructured(cmd, docsFormat, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents yet. Run 'marginalia import <file>' to add one.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Name:  %s\n", docs[i].Name)
		cmd.Printf("    Size:  %d chars\n", docs[i].CharCount)
		if docs[i].Path != "" {
			cmd.Printf("    Path:  %s\n", docs[i].Path)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	summary, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	doc, err := documentService.Get(ctx, summary.ID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if docsShowContent {
		cmd.Println(doc.Content)
		return nil
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:     %s\n", doc.Name)
	cmd.Printf("  Type:     %s\n", doc.MIMEType)
	if doc.Path != "" {
		cmd.Printf("  Path:     %s\n", doc.Path)
	}
	cmd.Printf("  Size:     %d chars\n", doc.CharCount())
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if indexService != nil {
		chunks, err := indexService.GetAllChunks(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to read index entries: %w", err)
		}
		cmd.Printf("  Chunks:   %d\n", len(chunks))
	}
	return nil
}

func runDocsRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	doc, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	if err := documentService.Rename(ctx, doc.ID, args[1]); err != nil {
		return fmt.Errorf("failed to rename document: %w", err)
	}

	cmd.Printf("Renamed %s to %q.\n", doc.ID, args[1])
	return nil
}

func runDocsReindex(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}
	ctx := cmd.Context()

	switch {
	case docsReindexAll && len(args) > 0:
		return fmt.Errorf("%w: pass a document or --all, not both", domain.ErrInvalidInput)
	case !docsReindexAll && len(args) == 0:
		return fmt.Errorf("%w: pass a document or --all", domain.ErrInvalidInput)
	}

	var targets []domain.DocumentSummary
	if docsReindexAll {
		docs, err := documentService.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		targets = docs
	} else {
		doc, err := resolveDocument(ctx, args[0])
		if err != nil {
			return err
		}
		targets = []domain.DocumentSummary{doc}
	}

	bar := newProgressBar(len(targets), "reindexing")
	for _, doc := range targets {
		chunks, err := documentService.Reindex(ctx, doc.ID)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			return fmt.Errorf("failed to reindex %s: %w", doc.Name, err)
		}
		cmd.Printf("Reindexed %s into %d chunks.\n", doc.Name, chunks)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	doc, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	if err := documentService.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s (%s).\n", doc.Name, doc.ID)
	return nil
}
