package domain

import "time"

// ExecOptions controls a single Execute call.
type ExecOptions struct {
	DryRun      bool
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Attempt records one process run. Attempts are appended, never rewritten.
type Attempt struct {
	Number    int
	PID       int
	StartedAt time.Time
	Duration  time.Duration
	ExitCode  int
	Stdout    string
	Stderr    string
	TimedOut  bool
	Err       string
}

// ExecutionResult is the outcome of a dry run or a real invocation.
type ExecutionResult struct {
	Command     string
	DryRun      bool
	Success     bool
	Stdout      string
	Stderr      string
	ExitCode    int
	Duration    time.Duration
	RetriesUsed int
	Attempts    []Attempt
	TimedOut    bool
	Explanation string
}

// LastAttempt returns the most recent attempt, if any.
func (r ExecutionResult) LastAttempt() (Attempt, bool) {
	if len(r.Attempts) == 0 {
		return Attempt{}, false
	}
	return r.Attempts[len(r.Attempts)-1], true
}
