package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/nixsay/internal/app"
	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/infrastructure/security"
)

// NewRulesCommand creates the rules command with list/check/test subcommands
func NewRulesCommand(container *app.Container) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect risk classification rules",
	}

	rulesCmd.AddCommand(
		newRulesListCommand(container),
		newRulesCheckCommand(container),
		newRulesTestCommand(container),
	)

	return rulesCmd
}

// newRulesListCommand lists loaded rules in evaluation order
func newRulesListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the loaded rules in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Guardrail == nil {
				return errors.New(ErrGuardrailUnavailable)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %s\n", container.Guardrail.Source())
			for _, rule := range container.Guardrail.Rules() {
				fmt.Fprintf(out, "%-9s %-22s %s\n", strings.ToUpper(rule.Tier), rule.ID, rule.Message)
			}
			return nil
		},
	}
}

// newRulesCheckCommand validates a rules file without loading it
func newRulesCheckCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "Validate a rules file (defaults to security.rules_file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := container.Config.Security.RulesFile
			if len(args) == 1 {
				path = args[0]
			}
			n, err := security.ValidateRulesFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules OK\n", path, n)
			return nil
		},
	}
}

// newRulesTestCommand classifies a raw command line
func newRulesTestCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <command...>",
		Short: "Show how a command line would be classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Guardrail == nil {
				return errors.New(ErrGuardrailUnavailable)
			}
			text := strings.Join(args, " ")
			risk, err := container.Guardrail.Assess(domain.Command{Text: text, Argv: strings.Fields(text)})
			if err != nil {
				return err
			}
			displayAssessment(cmd.OutOrStdout(), risk)
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func displayAssessment(out io.Writer, risk domain.RiskAssessment) {
	fmt.Fprintf(out, "Tier: %s\n", risk.Tier)
	if risk.MatchedRule != "" {
		fmt.Fprintf(out, "Rule: %s\n", risk.MatchedRule)
	}
	fmt.Fprintf(out, "Rationale: %s\n", risk.Rationale)
	fmt.Fprintf(out, "Policy: %s\n", risk.Policy)
	if risk.Alternative != "" {
		fmt.Fprintf(out, "Alternative: %s\n", risk.Alternative)
	}
}
