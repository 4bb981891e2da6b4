package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/connectors/filesystem"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var (
	importName  string
	importStdin bool
)

var importCmd = &cobra.Command{
	Use:   "import [path|glob|folder]...",
	Short: "Import documents into the library",
	Long: `Import text, Markdown, HTML, PDF and Word (.docx) files.

Arguments may be files, folders (imported recursively) or glob patterns
with ** for any depth. Quote globs so the shell leaves them alone.
Re-importing a file replaces the earlier copy and keeps its ID.

Examples:
  marginalia import moby-dick.txt
  marginalia import 'books/**/*.md'
  marginalia import ~/papers
  cat notes.txt | marginalia import --stdin --name "Reading notes"`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "display name (single file or --stdin only)")
	importCmd.Flags().BoolVar(&importStdin, "stdin", false, "read the document text from standard input")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	if importStdin {
		return runImportStdin(cmd, args)
	}
	if len(args) == 0 {
		return errors.New("requires at least one path, folder or glob")
	}

	paths, err := expandImportArgs(cmd, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		cmd.Println("No importable files found.")
		return nil
	}
	if importName != "" && len(paths) > 1 {
		return fmt.Errorf("%w: --name needs a single file, got %d", domain.ErrInvalidInput, len(paths))
	}

	ctx := cmd.Context()
	bar := newProgressBar(len(paths), "importing")
	failed := 0

	for _, path := range paths {
		result, err := documentService.Import(ctx, path)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			failed++
			cmd.PrintErrf("Failed %s: %v\n", path, err)
			continue
		}
		if importName != "" {
			if err := documentService.Rename(ctx, result.Document.ID, importName); err != nil {
				return fmt.Errorf("failed to rename document: %w", err)
			}
			result.Document.Name = importName
		}
		printImportResult(cmd, result)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	cmd.Printf("\nImported %d of %d files.\n", len(paths)-failed, len(paths))
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(paths))
	}
	return nil
}

func runImportStdin(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: --stdin takes no paths", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(importName) == "" {
		return fmt.Errorf("%w: --stdin requires --name", domain.ErrInvalidInput)
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read standard input: %w", err)
	}

	result, err := documentService.ImportText(cmd.Context(), importName, string(data))
	if err != nil {
		return fmt.Errorf("failed to import text: %w", err)
	}
	printImportResult(cmd, result)
	return nil
}

func printImportResult(cmd *cobra.Command, result *domain.ImportResult) {
	verb := "Imported"
	if result.Replaced {
		verb = "Replaced"
	}
	cmd.Printf("%s %s (%s, %d chunks)\n", verb, result.Document.Name, result.Document.ID, result.Chunks)
}

// expandImportArgs turns files, folders and globs into a deduplicated path list.
// Folders and globs only yield files the extractors support; a file named
// explicitly is passed through so an unsupported type is reported.
func expandImportArgs(cmd *cobra.Command, args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	for _, arg := range args {
		arg = filesystem.ResolvePath(arg)

		if strings.ContainsAny(arg, "*?[{") {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("%w: bad pattern %q: %w", domain.ErrInvalidInput, arg, err)
			}
			for _, m := range matches {
				if supported(m) {
					add(m)
				}
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot import %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}

		found, err := filesystem.New(arg, filesystem.WithFilter(supported)).Scan(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		for _, p := range found {
			add(p)
		}
	}
	return paths, nil
}

func supported(path string) bool {
	return supportsFile == nil || supportsFile(path)
}
