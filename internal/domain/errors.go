package domain

import (
	"errors"
	"strings"
)

// ErrorKind classifies every failure the interpreter reports.
type ErrorKind string

const (
	KindNotUnderstood      ErrorKind = "not_understood"
	KindAmbiguousIntent    ErrorKind = "ambiguous_intent"
	KindUnknownTarget      ErrorKind = "unknown_target"
	KindRejectedInput      ErrorKind = "rejected_input"
	KindBlockedByPolicy    ErrorKind = "blocked_by_policy"
	KindExecutionTimeout   ErrorKind = "execution_timeout"
	KindExecutionFailed    ErrorKind = "execution_failed"
	KindStorageUnavailable ErrorKind = "storage_unavailable"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNotUnderstood      = &Error{Kind: KindNotUnderstood}
	ErrAmbiguousIntent    = &Error{Kind: KindAmbiguousIntent}
	ErrUnknownTarget      = &Error{Kind: KindUnknownTarget}
	ErrRejectedInput      = &Error{Kind: KindRejectedInput}
	ErrBlockedByPolicy    = &Error{Kind: KindBlockedByPolicy}
	ErrExecutionTimeout   = &Error{Kind: KindExecutionTimeout}
	ErrExecutionFailed    = &Error{Kind: KindExecutionFailed}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
)

// Error is the user-facing failure: what was understood, why it failed and
// what to try next.
type Error struct {
	Kind        ErrorKind
	Understood  string
	Reason      string
	NextSteps   []string
	Suggestions []string
	Candidates  []Candidate
	Err         error
}

// NewError builds an Error with at least one next step.
func NewError(kind ErrorKind, understood, reason string, nextSteps ...string) *Error {
	steps := make([]string, 0, len(nextSteps))
	for _, step := range nextSteps {
		if strings.TrimSpace(step) != "" {
			steps = append(steps, step)
		}
	}
	if len(steps) == 0 {
		steps = append(steps, defaultNextStep(kind))
	}
	return &Error{Kind: kind, Understood: understood, Reason: reason, NextSteps: steps}
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the kind of a domain error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return ""
}

func defaultNextStep(kind ErrorKind) string {
	switch kind {
	case KindNotUnderstood:
		return `Try a phrase like "install firefox" or "search for python".`
	case KindAmbiguousIntent:
		return "Pick one of the suggestions or say it more specifically."
	case KindUnknownTarget:
		return `Search for it first, e.g. "search firefox".`
	case KindRejectedInput:
		return "Use a plain package or service name without special characters."
	case KindBlockedByPolicy:
		return "Rephrase the request or use the suggested safer alternative."
	case KindExecutionTimeout:
		return "Check your network connection and try again."
	case KindExecutionFailed:
		return "Read the error output above; run with --verbose for details."
	case KindStorageUnavailable:
		return "Learning is paused for this run; check the feedback database path."
	default:
		return "Try rephrasing the request."
	}
}
