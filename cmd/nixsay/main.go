package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/doeshing/nixsay/internal/app"
	"github.com/doeshing/nixsay/internal/infrastructure/cli"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Ctrl-C cancels the running command; the executor kills its process group.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verbose := isVerbose(os.Args[1:])
	container, err := app.BuildContainer(ctx, verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = container.Close(closeCtx)
	}()

	root := cli.NewRootCmd(container, cli.Options{})
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging (also NIXSAY_DEBUG=1)")

	if err := root.ExecuteContext(ctx); err != nil {
		switch {
		case errors.Is(err, cli.ErrReported):
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(os.Stderr, "Interrupted.")
			return 130
		default:
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

// isVerbose is checked before cobra parses flags because the logger is built
// with the container. Only leading flags count; the rest is the request.
func isVerbose(args []string) bool {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") || arg == "--" {
			break
		}
		if arg == "--verbose" || arg == "-v" {
			return true
		}
	}
	debug := os.Getenv("NIXSAY_DEBUG")
	return strings.EqualFold(debug, "1") || strings.EqualFold(debug, "true")
}
