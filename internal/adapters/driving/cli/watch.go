package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/connectors/filesystem"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/logger"
)

var (
	watchScan     bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [folder]",
	Short: "Keep a folder in sync with the library",
	Long: `Imports supported files in a folder and keeps watching it. New and
changed files are imported again; removed files are deleted from the
library. Hidden files and folders are ignored. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchScan, "scan", true, "import existing files before watching")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce,
		"quiet period before a changed file is imported")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	ctx := cmd.Context()
	connector := filesystem.New(filesystem.ResolvePath(args[0]),
		filesystem.WithFilter(supported),
		filesystem.WithDebounce(watchDebounce))
	defer connector.Close()

	if err := connector.Validate(); err != nil {
		return err
	}

	if watchScan {
		paths, err := connector.Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", connector.RootPath(), err)
		}
		for _, path := range paths {
			applyChange(ctx, cmd, filesystem.Change{Type: filesystem.ChangeCreated, Path: path})
		}
	}

	changes, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", connector.RootPath(), err)
	}

	cmd.Printf("Watching %s. Press Ctrl-C to stop.\n", connector.RootPath())
	for change := range changes {
		applyChange(ctx, cmd, change)
	}
	return nil
}

// applyChange mirrors one file change into the library. Failures are
// reported and the watch continues.
func applyChange(ctx context.Context, cmd *cobra.Command, change filesystem.Change) {
	logger.Debug("Watch: %s %s", change.Type, change.Path)

	if change.Type == filesystem.ChangeDeleted {
		doc, err := documentService.FindByPath(ctx, change.Path)
		if errors.Is(err, domain.ErrNotFound) {
			return
		}
		if err == nil {
			err = documentService.Delete(ctx, doc.ID)
		}
		if err != nil {
			cmd.PrintErrf("Failed to remove %s: %v\n", change.Path, err)
			return
		}
		cmd.Printf("Removed %s (%s)\n", doc.Name, doc.ID)
		return
	}

	result, err := documentService.Import(ctx, change.Path)
	if err != nil {
		cmd.PrintErrf("Failed %s: %v\n", change.Path, err)
		return
	}
	printImportResult(cmd, result)
}
