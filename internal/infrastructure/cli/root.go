package cli

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/doeshing/nixsay/internal/app"
	"github.com/doeshing/nixsay/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
// Nil streams default to stdin and stdout.
type Options struct {
	In  io.Reader
	Out io.Writer
}

// environment carries the terminal both interactive commands share.
type environment struct {
	prompter *Prompter
	out      io.Writer
}

func (e *environment) conversation(container *app.Container, sessionID string) *Conversation {
	return &Conversation{
		Interpreter: container.InterpretService,
		Session:     container.NewSession(sessionID),
		Renderer:    NewRenderer(e.out, container.Config.GetPersonality()),
		Prompter:    e.prompter,
		Progress:    progressFor(e.out),
	}
}

// NewRootCmd wires the cobra root command. The container is built by the
// caller so it can be closed after the command returns.
func NewRootCmd(container *app.Container, opts Options) *cobra.Command {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	env := &environment{prompter: NewPrompter(opts.In, out), out: out}

	var live, dryRun bool
	root := &cobra.Command{
		Use:   "nixsay [request]",
		Short: "nixsay - plain-language package management for Nix and NixOS",
		Long: "nixsay turns requests like \"install firefox\" into Nix commands, shows the risk,\n" +
			"and runs them only when asked, with a typed confirmation for anything risky.",
		// Requests are free text; unknown words are not subcommands.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			conv := env.conversation(container, uuid.NewString())
			return conv.Handle(cmd.Context(), strings.Join(args, " "), modeFor(live, dryRun))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.Flags().BoolVarP(&live, "execute", "x", false, "Run the command for real after confirmation")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "Go through confirmation without running anything")
	// Everything after the first word is the request, not flags.
	root.Flags().SetInterspersed(false)

	root.AddCommand(newReplCommand(container, env))
	root.AddCommand(commands.NewFeedbackCommand(container))
	root.AddCommand(commands.NewPromoteCommand(container))
	root.AddCommand(commands.NewRulesCommand(container))
	root.AddCommand(commands.NewKnowledgeCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root
}
