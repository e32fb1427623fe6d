package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/nixsay/internal/app"
	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/infrastructure/cli/helpers"
	"github.com/doeshing/nixsay/internal/infrastructure/feedback"
)

// NewFeedbackCommand creates the feedback command with all subcommands
func NewFeedbackCommand(container *app.Container) *cobra.Command {
	feedbackCmd := &cobra.Command{
		Use:   "feedback",
		Short: "Inspect recorded interactions",
	}

	feedbackCmd.AddCommand(
		newFeedbackListCommand(container),
		newFeedbackStatsCommand(container),
		newFeedbackExportCommand(container),
	)

	return feedbackCmd
}

// newFeedbackListCommand creates the 'feedback list' subcommand
func newFeedbackListCommand(container *app.Container) *cobra.Command {
	var (
		limit int
		query string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent interactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFeedback(cmd.Context(), cmd.OutOrStdout(), container, limit, query)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultFeedbackLimit, "Max entries to show")
	cmd.Flags().StringVar(&query, "query", "", "Only show entries whose input, command or target contains this")
	return cmd
}

// newFeedbackStatsCommand creates the 'feedback stats' subcommand
func newFeedbackStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show success rate, top operations and risk distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showFeedbackStats(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// newFeedbackExportCommand creates the 'feedback export' subcommand
func newFeedbackExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export feedback to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Recorder == nil {
				return errors.New(ErrFeedbackDisabled)
			}
			n, err := feedback.ExportJSON(cmd.Context(), container.Recorder, args[0])
			if err != nil {
				return fmt.Errorf("failed to export feedback to %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, args[0])
			return nil
		},
	}
}

func listFeedback(ctx context.Context, out io.Writer, container *app.Container, limit int, query string) error {
	if container.Recorder == nil {
		return errors.New(ErrFeedbackDisabled)
	}
	records, err := container.Recorder.Records(ctx, limit, query)
	if err != nil {
		return fmt.Errorf("failed to retrieve feedback: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoFeedbackRecorded)
		return nil
	}
	if container.Recorder.Degraded() {
		fmt.Fprintln(out, "(database unavailable; showing this run only)")
	}
	for _, rec := range records {
		fmt.Fprintln(out, formatRecord(rec))
	}
	return nil
}

func formatRecord(rec domain.FeedbackRecord) string {
	status := "ok"
	if !rec.Success {
		status = fmt.Sprintf("exit %d", rec.ExitCode)
	}
	return fmt.Sprintf("%s | %-8s | %-7s | %s | %q",
		humanize.Time(rec.Timestamp),
		rec.Tier,
		status,
		rec.Command,
		rec.Input)
}

// showFeedbackStats displays success rate and top operations
func showFeedbackStats(ctx context.Context, out io.Writer, container *app.Container) error {
	if container.Recorder == nil {
		return errors.New(ErrFeedbackDisabled)
	}
	records, err := container.Recorder.Records(ctx, MaxAnalysisRecords, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve feedback for analysis: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoFeedbackRecorded)
		return nil
	}
	displayFeedbackStatistics(out, feedback.Summarize(records), records)
	return nil
}

func displayFeedbackStatistics(out io.Writer, stats domain.FeedbackStats, records []domain.FeedbackRecord) {
	fmt.Fprintf(out, "Executions: %s across %s sessions\nSuccess rate: %.1f%%\n",
		humanize.Comma(int64(stats.Total)),
		humanize.Comma(int64(stats.Sessions)),
		helpers.CalculateSuccessRate(stats.Successful, stats.Total))

	fmt.Fprintln(out, "Top operations:")
	for _, stat := range helpers.TopCounts(stats.ByOperation, TopOperationsShown) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Key, stat.Count)
	}

	fmt.Fprintln(out, "Risk distribution:")
	for _, tier := range []domain.RiskTier{domain.TierSafe, domain.TierLow, domain.TierMedium, domain.TierHigh, domain.TierCritical} {
		if count := stats.ByTier[tier]; count > 0 {
			fmt.Fprintf(out, "  %s: %d\n", tier, count)
		}
	}

	if hints := helpers.DeriveUndoHints(records); len(hints) > 0 {
		fmt.Fprintln(out, "Undo hints:")
		for _, hint := range hints {
			fmt.Fprintf(out, "  - %s\n", hint)
		}
	}
}
