package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/nixsay/internal/app"
	"github.com/doeshing/nixsay/internal/application/learning"
	"github.com/doeshing/nixsay/internal/infrastructure/cli/helpers"
)

// NewPromoteCommand creates the batch alias promotion command. Without
// --apply it only reports what would be learned.
func NewPromoteCommand(container *app.Container) *cobra.Command {
	var apply, yes bool
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Learn aliases that several sessions corrected the same way",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Recorder == nil {
				return errors.New(ErrFeedbackDisabled)
			}
			out := cmd.OutOrStdout()
			report, err := container.LearningService.Promote(cmd.Context(), false)
			if err != nil {
				return err
			}
			displayProposals(out, report)
			if !apply || len(report.Proposed) == 0 {
				return nil
			}
			if !yes {
				reader := bufio.NewReader(cmd.InOrStdin())
				question := fmt.Sprintf("Promote %d aliases?", len(report.Proposed))
				if !helpers.PromptForYesNo(out, reader, question, false) {
					fmt.Fprintln(out, MsgPromotionCancelled)
					return nil
				}
			}
			report, err = container.LearningService.Promote(cmd.Context(), true)
			if err != nil {
				return err
			}
			displayPromotions(out, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Register and persist the proposed aliases")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask before applying")
	return cmd
}

func displayProposals(out io.Writer, report learning.Report) {
	fmt.Fprintf(out, "Examined %d records.\n", report.Examined)
	if len(report.Proposed) == 0 {
		fmt.Fprintln(out, MsgNoPromotions)
		return
	}
	for _, p := range report.Proposed {
		fmt.Fprintf(out, "  %s -> %s (%s, %d sessions)\n", p.Alias, p.Canonical, p.Kind, p.Support)
	}
}

func displayPromotions(out io.Writer, report learning.Report) {
	fmt.Fprintf(out, "Promoted %d aliases.\n", len(report.Promoted))
	for _, conflict := range report.Conflicts {
		fmt.Fprintf(out, "  skipped: %s\n", conflict)
	}
}
