package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var (
	chaptersFormat string
	summaryFormat  string
	timelineFormat string
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "Detect and analyse chapters",
	Long: `Chapter commands work on whole chapters instead of retrieved excerpts.

Chapters are addressed by their position in 'marginalia chapters list',
starting at 1. Detection results are cached per document; use 'detect'
to run it again.`,
}

var chaptersListCmd = &cobra.Command{
	Use:   "list [doc]",
	Short: "List the chapters of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runChaptersList,
}

var chaptersDetectCmd = &cobra.Command{
	Use:   "detect [doc]",
	Short: "Detect chapters again, replacing the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runChaptersDetect,
}

var chaptersShowCmd = &cobra.Command{
	Use:   "show [doc] [position]",
	Short: "Print the text of one chapter",
	Args:  cobra.ExactArgs(2),
	RunE:  runChaptersShow,
}

var chaptersSummariseCmd = &cobra.Command{
	Use:     "summarise [doc]",
	Aliases: []string{"summarize"},
	Short:   "Summarise every chapter",
	Long: `Sends each chapter to the LLM in turn. A chapter that fails gets a
placeholder and the batch continues. Ctrl-C stops between chapters.`,
	Args: cobra.ExactArgs(1),
	RunE: runChaptersSummarise,
}

var chaptersTimelineCmd = &cobra.Command{
	Use:   "timeline [doc]",
	Short: "Build a timeline of events across chapters",
	Long: `Extracts the events of each chapter, then merges them into one
chronological timeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runChaptersTimeline,
}

var chaptersAskCmd = &cobra.Command{
	Use:   "ask [doc] [position] [question]",
	Short: "Answer a question from the full text of one chapter",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runChaptersAsk,
}

func init() {
	chaptersListCmd.Flags().StringVarP(&chaptersFormat, "format", "f", formatText, "output format: text, json or yaml")
	chaptersDetectCmd.Flags().StringVarP(&chaptersFormat, "format", "f", formatText, "output format: text, json or yaml")
	chaptersSummariseCmd.Flags().StringVarP(&summaryFormat, "format", "f", formatText, "output format: text, json or yaml")
	chaptersTimelineCmd.Flags().StringVarP(&timelineFormat, "format", "f", formatText, "output format: text, json or yaml")

	chaptersCmd.AddCommand(chaptersListCmd)
	chaptersCmd.AddCommand(chaptersDetectCmd)
	chaptersCmd.AddCommand(chaptersShowCmd)
	chaptersCmd.AddCommand(chaptersSummariseCmd)
	chaptersCmd.AddCommand(chaptersTimelineCmd)
	chaptersCmd.AddCommand(chaptersAskCmd)
	rootCmd.AddCommand(chaptersCmd)
}

var errAnalysisServiceMissing = errors.New("analysis service not configured")

func runChaptersList(cmd *cobra.Command, args []string) error {
	return listChapters(cmd, args[0], false)
}

func runChaptersDetect(cmd *cobra.Command, args []string) error {
	return listChapters(cmd, args[0], true)
}

func listChapters(cmd *cobra.Command, ref string, redetect bool) error {
	if analysisService == nil {
		return errAnalysisServiceMissing
	}
	if err := validateFormat(chaptersFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	doc, err := resolveDocument(ctx, ref)
	if err != nil {
		return err
	}

	var spans []domain.ChapterSpan
	if redetect {
		spans, err = analysisService.DetectChapters(ctx, doc.ID)
	} else {
		spans, err = analysisService.Chapters(ctx, doc.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to detect chapters: %w", err)
	}

	if chaptersFormat != formatText {
		if spans == nil {
			spans = []domain.ChapterSpan{}
		}
		return printStructured(cmd, chaptersFormat, spans)
	}

	if len(spans) == 0 {
		cmd.Printf("No chapters found in %s.\n", doc.Name)
		return nil
	}

	cmd.Printf("Chapters of %s:\n\n", doc.Name)
	for _, s := range spans {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("  %3d. %-12s %s  (%d chars)\n", s.Index+1, s.Label(), title, s.CharCount)
	}
	cmd.Printf("\nTotal: %d chapters\n", len(spans))
	return nil
}

// parsePosition converts a 1-based chapter position to a span index.
func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: chapter position must be a number from 1, got %q", domain.ErrInvalidInput, arg)
	}
	return n - 1, nil
}

func runChaptersShow(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errAnalysisServiceMissing
	}
	index, err := parsePosition(args[1])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	doc, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	text, err := analysisService.ChapterText(ctx, doc.ID, index)
	if err != nil {
		return fmt.Errorf("failed to read chapter: %w", err)
	}
	cmd.Println(text)
	return nil
}

func runChaptersSummarise(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errAnalysisServiceMissing
	}
	if err := validateFormat(summaryFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	doc, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	report, finish := chapterProgress("summarising")
	outcomes, err := analysisService.SummariseChapters(ctx, doc.ID, report)
	finish()
	if err != nil {
		return fmt.Errorf("failed to summarise chapters: %w", err)
	}

	if summaryFormat != formatText {
		return printStructured(cmd, summaryFormat, outcomes)
	}

	cmd.Printf("Chapter summaries of %s\n", doc.Name)
	printOutcomes(cmd, outcomes)
	return nil
}

func runChaptersTimeline(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errAnalysisServiceMissing
	}
	if err := validateFormat(timelineFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	doc, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	report, finish := chapterProgress("extracting events")
	timeline, err := analysisService.BuildTimeline(ctx, doc.ID, report)
	finish()
	if err != nil {
		return fmt.Errorf("failed to build timeline: %w", err)
	}

	if timelineFormat != formatText {
		return printStructured(cmd, timelineFormat, timeline)
	}

	cmd.Printf("Timeline of %s\n", doc.Name)
	if timeline.Merged != "" {
		cmd.Println()
		cmd.Println(timeline.Merged)
		return nil
	}

	cmd.Printf("\nMerging failed: %s\nPer-chapter events follow.\n", timeline.MergeError)
	printOutcomes(cmd, timeline.Events)
	return nil
}

func printOutcomes(cmd *cobra.Command, outcomes []domain.ChapterOutcome) {
	failed := 0
	for _, o := range outcomes {
		cmd.Println()
		cmd.Printf("== %s: %s ==\n", o.Label, o.Chapter.Title)
		cmd.Println(o.Output)
		if o.Failed {
			failed++
		}
	}
	if failed > 0 {
		cmd.Printf("\n%d of %d chapters failed.\n", failed, len(outcomes))
	}
}

func runChaptersAsk(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errAnalysisServiceMissing
	}
	index, err := parsePosition(args[1])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	doc, err := resolveDocument(ctx, args[0])
	if err != nil {
		return err
	}

	answer, err := analysisService.AskChapter(ctx, doc.ID, index, strings.Join(args[2:], " "))
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}
	cmd.Println(answer)
	return nil
}
