package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/nixsay/internal/app"
	"github.com/doeshing/nixsay/internal/domain"
)

// NewKnowledgeCommand creates the knowledge command
func NewKnowledgeCommand(container *app.Container) *cobra.Command {
	knowledgeCmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Inspect known packages, services and operations",
	}
	knowledgeCmd.AddCommand(
		newKnowledgeShowCommand(container),
		newKnowledgeResolveCommand(container),
		newKnowledgeTroubleshootCommand(container),
		newKnowledgePracticesCommand(container),
	)
	return knowledgeCmd
}

func newKnowledgeShowCommand(container *app.Container) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List operations and known names",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Knowledge == nil {
				return errors.New(ErrKnowledgeUnavailable)
			}
			out := cmd.OutOrStdout()
			kb := container.Knowledge
			fmt.Fprintf(out, "%d entries, version %d\n\nOperations:\n", kb.Count(), kb.Version())
			for _, op := range kb.Operations() {
				fmt.Fprintf(out, "  %-22s %s\n", op.Name, op.Description)
			}
			for _, k := range []domain.EntryKind{domain.KindPackage, domain.KindService} {
				if kind != "" && string(k) != kind {
					continue
				}
				fmt.Fprintf(out, "\n%s entries:\n", k)
				displayEntries(out, kb.Entries(k))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only list package or service entries")
	return cmd
}

func newKnowledgeResolveCommand(container *app.Container) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show how a name resolves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Knowledge == nil {
				return errors.New(ErrKnowledgeUnavailable)
			}
			out := cmd.OutOrStdout()
			res, err := container.Knowledge.Resolve(domain.EntryKind(kind), args[0])
			if err != nil {
				return err
			}
			if res.Ambiguous() {
				fmt.Fprintf(out, "%q is a category matching:\n", args[0])
				displayEntries(out, res.Matches)
				return nil
			}
			fmt.Fprintf(out, "%s -> %s (%s", args[0], res.Entry.Canonical, res.Via)
			if res.Distance > 0 {
				fmt.Fprintf(out, ", distance %d", res.Distance)
			}
			fmt.Fprintf(out, ", %s layer)\n", res.Entry.Layer)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(domain.KindPackage), "package or service")
	return cmd
}

func newKnowledgeTroubleshootCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "troubleshoot <symptom or error text>",
		Short: "Look up the usual cause and fix for a problem",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Knowledge == nil {
				return errors.New(ErrKnowledgeUnavailable)
			}
			out := cmd.OutOrStdout()
			problems := container.Knowledge.Troubleshoot(strings.Join(args, " "))
			if len(problems) == 0 {
				fmt.Fprintln(out, MsgNoKnownProblem)
				return nil
			}
			for i, p := range problems {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s\n  Cause:    %s\n  Solution: %s\n", p.Symptom, p.Cause, p.Solution)
				if p.Prevention != "" {
					fmt.Fprintf(out, "  Avoid:    %s\n", p.Prevention)
				}
			}
			return nil
		},
	}
}

func newKnowledgePracticesCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "practices [topic]",
		Short: "Show recommended practices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Knowledge == nil {
				return errors.New(ErrKnowledgeUnavailable)
			}
			out := cmd.OutOrStdout()
			practices := container.Knowledge.Practices()
			if len(args) == 1 {
				p, ok := container.Knowledge.Practice(args[0])
				if !ok {
					return fmt.Errorf("no practice for topic %q", args[0])
				}
				practices = []domain.Practice{p}
			}
			for _, p := range practices {
				fmt.Fprintf(out, "%s: %s\n", p.Topic, p.Practice)
				if p.Reason != "" {
					fmt.Fprintf(out, "  Why:     %s\n", p.Reason)
				}
				if p.Example != "" {
					fmt.Fprintf(out, "  Example: %s\n", p.Example)
				}
			}
			return nil
		},
	}
}

func displayEntries(out io.Writer, entries []domain.KnowledgeEntry) {
	for _, e := range entries {
		line := "  " + e.Canonical
		if len(e.Aliases) > 0 {
			line += " (" + strings.Join(e.Aliases, ", ") + ")"
		}
		if e.Description != "" {
			line += " - " + e.Description
		}
		fmt.Fprintln(out, line)
	}
}
