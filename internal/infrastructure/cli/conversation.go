package cli

import (
	"context"
	"errors"

	"github.com/doeshing/nixsay/internal/application/interpret"
	"github.com/doeshing/nixsay/internal/domain"
)

// ErrReported marks a failure that has already been rendered to the user.
// Callers should exit non-zero without printing it again.
var ErrReported = errors.New("reported")

// Mode selects how far a turn goes.
type Mode int

const (
	// ModePreview interprets and shows the plan.
	ModePreview Mode = iota
	// ModeDryRun passes the confirmation gate but never spawns a process.
	ModeDryRun
	// ModeLive runs the command.
	ModeLive
)

// Interpreter is the core API a conversation drives.
type Interpreter interface {
	Interpret(ctx context.Context, text string, session *domain.Session) (domain.Response, error)
	Execute(ctx context.Context, req interpret.ExecuteRequest) (domain.Response, error)
}

// Conversation handles user turns against one session.
type Conversation struct {
	Interpreter Interpreter
	Session     *domain.Session
	Renderer    *Renderer
	Prompter    *Prompter
	// Progress, when set, shows activity during live runs and returns the
	// function that stops it.
	Progress func(label string) func()
}

// Handle runs one turn. Domain failures are rendered and reported as
// ErrReported; other errors are returned as-is.
func (c *Conversation) Handle(ctx context.Context, text string, mode Mode) error {
	resp, err := c.Interpreter.Interpret(ctx, text, c.Session)
	intent, ok, err := c.settle(ctx, resp, err, mode)
	if !ok {
		return err
	}
	if mode == ModePreview {
		c.Renderer.Render(resp)
		return nil
	}

	req := interpret.ExecuteRequest{Intent: intent, Live: mode == ModeLive, SessionID: c.Session.ID}
	interactive := resp.Command != nil && resp.Command.Interactive
	resp, err = c.execute(ctx, req, interactive)
	if err == nil && resp.Status == domain.StatusConfirmationRequired {
		c.Renderer.Render(resp)
		token, perr := c.Prompter.Confirm(ctx, *resp.Risk, resp.Preview)
		if perr != nil {
			return perr
		}
		if token == nil {
			c.Renderer.Notice("Cancelled. Nothing was run.")
			return nil
		}
		req.Token = token
		resp, err = c.execute(ctx, req, interactive)
		if err == nil && resp.Status == domain.StatusConfirmationRequired {
			c.Renderer.Notice("The confirmation did not match. Nothing was run.")
			return ErrReported
		}
	}
	return c.report(resp, err)
}

func (c *Conversation) execute(ctx context.Context, req interpret.ExecuteRequest, interactive bool) (domain.Response, error) {
	if c.Progress != nil && req.Live && !interactive {
		stop := c.Progress("Running...")
		defer stop()
	}
	return c.Interpreter.Execute(ctx, req)
}

// settle turns the interpret result into an intent to execute. A
// clarification is resolved by asking the user when the turn will execute.
func (c *Conversation) settle(ctx context.Context, resp domain.Response, err error, mode Mode) (domain.Intent, bool, error) {
	if err == nil {
		if resp.Status == domain.StatusBlocked || resp.Intent == nil {
			return domain.Intent{}, false, c.report(resp, nil)
		}
		return *resp.Intent, true, nil
	}
	if domain.KindOf(err) != domain.KindAmbiguousIntent || len(resp.Candidates) == 0 || mode == ModePreview {
		return domain.Intent{}, false, c.report(resp, err)
	}

	c.Renderer.Render(resp)
	idx, perr := c.Prompter.Choose(ctx, resp.Candidates)
	if perr != nil {
		return domain.Intent{}, false, perr
	}
	if idx < 0 {
		c.Renderer.Notice("Cancelled. Nothing was run.")
		return domain.Intent{}, false, nil
	}
	// The user picked it; that is full confidence.
	intent := resp.Candidates[idx].Intent
	intent.Confidence = 1
	c.Session.Remember(intent, false)
	return intent, true, nil
}

func (c *Conversation) report(resp domain.Response, err error) error {
	if err == nil {
		c.Renderer.Render(resp)
		if resp.Status == domain.StatusBlocked {
			return ErrReported
		}
		return nil
	}
	if domain.KindOf(err) == "" && resp.Status == "" {
		return err
	}
	c.Renderer.Render(resp)
	return ErrReported
}
