package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errPromptsMissing = errors.New("prompt files not configured")

// PromptFiles is the on-disk set of prompt templates.
type PromptFiles interface {
	Dir() string
	Names() []string
	Customised(name string) (bool, error)
	Reset(name string) error
}

var promptsResetAll bool

var settingsPromptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the prompt templates and where they live",
	Long: `Prompt templates are plain text files. Edit them to change how
questions, comparisons and chapter analyses are put to the LLM.`,
	Args: cobra.NoArgs,
	RunE: runPromptsList,
}

var settingsPromptsResetCmd = &cobra.Command{
	Use:   "reset [name]...",
	Short: "Restore prompt templates to the built-in wording",
	Example: `  marginalia settings prompts reset rag
  marginalia settings prompts reset --all`,
	RunE: runPromptsReset,
}

func init() {
	settingsPromptsResetCmd.Flags().BoolVar(&promptsResetAll, "all", false, "reset every template")
	settingsPromptsCmd.AddCommand(settingsPromptsResetCmd)
	settingsCmd.AddCommand(settingsPromptsCmd)
}

func runPromptsList(cmd *cobra.Command, _ []string) error {
	if promptFiles == nil {
		return errPromptsMissing
	}
	cmd.Printf("Prompt directory: %s\n\n", promptFiles.Dir())
	for _, name := range promptFiles.Names() {
		state := "built-in"
		custom, err := promptFiles.Customised(name)
		switch {
		case err != nil:
			state = "unreadable: " + err.Error()
		case custom:
			state = "edited"
		}
		cmd.Printf("  %-18s %s\n", name, state)
	}
	return nil
}

func runPromptsReset(cmd *cobra.Command, args []string) error {
	if promptFiles == nil {
		return errPromptsMissing
	}
	names := args
	switch {
	case promptsResetAll && len(args) > 0:
		return errors.New("give template names or --all, not both")
	case promptsResetAll:
		names = promptFiles.Names()
	case len(args) == 0:
		return errors.New("name a template to reset, or pass --all")
	}

	for _, name := range names {
		if err := promptFiles.Reset(name); err != nil {
			return fmt.Errorf("reset %s: %w", name, err)
		}
		cmd.Printf("Reset %s\n", name)
	}
	return nil
}
