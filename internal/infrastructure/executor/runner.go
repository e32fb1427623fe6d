// Package executor previews or runs rendered commands with per-attempt
// timeouts, bounded retry and process-group cleanup.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// LocalExecutor runs commands directly, never through a shell.
type LocalExecutor struct {
	log ports.Logger

	// Terminal streams for interactive commands.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewLocalExecutor builds a new executor.
func NewLocalExecutor(log ports.Logger) *LocalExecutor {
	return &LocalExecutor{log: log, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Execute implements ports.CommandExecutor. Dry runs never spawn a process.
// A returned *domain.Error carries the partial result alongside it.
func (e *LocalExecutor) Execute(ctx context.Context, cmd domain.Command, opts domain.ExecOptions) (domain.ExecutionResult, error) {
	result := domain.ExecutionResult{
		Command:     cmd.Text,
		DryRun:      opts.DryRun,
		Explanation: cmd.Explanation,
	}
	if len(cmd.Argv) == 0 {
		return result, errors.New("command has no argv")
	}
	if opts.DryRun {
		result.Success = true
		return result, nil
	}
	if cmd.Interactive {
		return e.runInteractive(ctx, cmd, result)
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if !cmd.Idempotent {
		maxAttempts = 1
	}

	start := time.Now()
	for n := 1; ; n++ {
		attempt := e.runOnce(ctx, cmd, n, opts.Timeout)
		result.Attempts = append(result.Attempts, attempt)
		result.Stdout, result.Stderr = attempt.Stdout, attempt.Stderr
		result.ExitCode = attempt.ExitCode
		result.RetriesUsed = n - 1
		result.Duration = time.Since(start)

		if attempt.Err == "" && attempt.ExitCode == 0 {
			result.Success = true
			return result, nil
		}
		if attempt.TimedOut {
			result.TimedOut = true
			return result, timeoutError(cmd, opts.Timeout, attempt)
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if n >= maxAttempts || !IsTransient(attempt.Stderr) {
			break
		}

		delay := Backoff(n, opts.BackoffBase, opts.BackoffMax)
		e.warn("transient failure, retrying", map[string]interface{}{
			"command": cmd.Text,
			"attempt": n,
			"delay":   delay.String(),
		})
		if err := sleep(ctx, delay); err != nil {
			return result, err
		}
	}

	last, _ := result.LastAttempt()
	result.Explanation = ExplainFailure(last.Stderr+"\n"+last.Stdout, last.Err)
	return result, failureError(cmd, result)
}

func (e *LocalExecutor) runOnce(ctx context.Context, cmd domain.Command, number int, timeout time.Duration) domain.Attempt {
	attemptCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	c := exec.CommandContext(attemptCtx, cmd.Argv[0], cmd.Argv[1:]...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	setupProcessGroup(c)
	c.Cancel = func() error { return killProcessGroup(c) }
	c.WaitDelay = domain.ProcessWaitDelay

	attempt := domain.Attempt{Number: number, StartedAt: time.Now()}
	err := c.Start()
	if err == nil {
		attempt.PID = c.Process.Pid
		e.debug("process started", map[string]interface{}{"command": cmd.Text, "pid": attempt.PID, "attempt": number})
		err = c.Wait()
	}
	attempt.Duration = time.Since(attempt.StartedAt)
	attempt.Stdout = stdout.String()
	attempt.Stderr = stderr.String()

	if err == nil {
		return attempt
	}
	attempt.Err = err.Error()
	attempt.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		attempt.ExitCode = exitErr.ExitCode()
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		attempt.TimedOut = true
	}
	return attempt
}

func (e *LocalExecutor) runInteractive(ctx context.Context, cmd domain.Command, result domain.ExecutionResult) (domain.ExecutionResult, error) {
	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Stdin, c.Stdout, c.Stderr = e.Stdin, e.Stdout, e.Stderr
	attempt := domain.Attempt{Number: 1, StartedAt: time.Now()}
	err := c.Run()
	attempt.Duration = time.Since(attempt.StartedAt)
	if c.Process != nil {
		attempt.PID = c.Process.Pid
	}
	if err != nil {
		attempt.Err = err.Error()
		attempt.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			attempt.ExitCode = exitErr.ExitCode()
		}
	}
	result.Attempts = []domain.Attempt{attempt}
	result.ExitCode = attempt.ExitCode
	result.Duration = attempt.Duration
	result.Success = err == nil
	if err != nil {
		result.Explanation = ExplainFailure("", attempt.Err)
		return result, failureError(cmd, result)
	}
	return result, nil
}

// Backoff returns the delay before retry n (1-based): base doubling each
// time, capped at max.
func Backoff(n int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = domain.DefaultBackoffBase
	}
	if max <= 0 {
		max = domain.DefaultBackoffMax
	}
	delay := base
	for i := 1; i < n; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func timeoutError(cmd domain.Command, timeout time.Duration, attempt domain.Attempt) *domain.Error {
	reason := fmt.Sprintf("%s did not finish within %s and was stopped", cmd.Argv[0], timeout)
	if out := strings.TrimSpace(attempt.Stdout); out != "" {
		reason += "; partial output was kept"
	}
	return domain.NewError(domain.KindExecutionTimeout, cmd.Text, reason)
}

func failureError(cmd domain.Command, result domain.ExecutionResult) *domain.Error {
	reason := fmt.Sprintf("exited with code %d", result.ExitCode)
	if last, ok := result.LastAttempt(); ok && result.ExitCode == -1 && last.Err != "" {
		reason = last.Err
	}
	if result.RetriesUsed > 0 {
		reason += fmt.Sprintf(" after %d retries", result.RetriesUsed)
	}
	return domain.NewError(domain.KindExecutionFailed, cmd.Text, reason, result.Explanation)
}

func (e *LocalExecutor) debug(msg string, fields map[string]interface{}) {
	if e.log != nil {
		e.log.Debug(msg, fields)
	}
}

func (e *LocalExecutor) warn(msg string, fields map[string]interface{}) {
	if e.log != nil {
		e.log.Warn(msg, fields)
	}
}

var _ ports.CommandExecutor = (*LocalExecutor)(nil)
