package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/doeshing/nixsay/internal/app"
)

const replPrompt = "nixsay> "

func newReplCommand(container *app.Container, env *environment) *cobra.Command {
	var live, dryRun bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session that remembers context between turns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := env.conversation(container, uuid.NewString())
			return runRepl(cmd.Context(), cmd.OutOrStdout(), conv, modeFor(live, dryRun))
		},
	}
	cmd.Flags().BoolVarP(&live, "execute", "x", false, "Run commands for real after confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Go through confirmation without running anything")
	return cmd
}

// runRepl reads turns until EOF, "exit" or cancellation. Failed turns are
// rendered and the loop continues.
func runRepl(ctx context.Context, out io.Writer, conv *Conversation, mode Mode) error {
	fmt.Fprintln(out, `Ask away. "reset" forgets context, "exit" quits.`)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := conv.Prompter.ReadLine(ctx, replPrompt)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", "bye":
			return nil
		case "reset":
			conv.Session.Reset()
			conv.Renderer.Notice("Context cleared.")
			continue
		}
		if err := conv.Handle(ctx, line, mode); err != nil {
			if errors.Is(err, ErrReported) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				conv.Renderer.Notice("Interrupted.")
				return nil
			}
			conv.Renderer.RenderError(err)
		}
	}
}

func modeFor(live, dryRun bool) Mode {
	switch {
	case live:
		return ModeLive
	case dryRun:
		return ModeDryRun
	default:
		return ModePreview
	}
}
