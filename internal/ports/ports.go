// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The application core (parsing orchestration, safety gating, learning) talks
// to knowledge storage, risk rules, process execution and persistence only
// through these interfaces. Concrete adapters live under
// internal/infrastructure.
package ports

import (
	"context"

	"github.com/doeshing/nixsay/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.nixsay/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// KnowledgeBase is the deterministic registry of canonical names, aliases and
// command templates. It never invents entries.
type KnowledgeBase interface {
	Resolve(kind domain.EntryKind, name string) (domain.Resolution, error)
	Suggest(kind domain.EntryKind, name string, limit int) []string
	IsKnownName(word string) bool
	Operation(name string) (domain.Operation, bool)
	Render(intent domain.Intent, preferred domain.Method) (domain.Command, error)
	ValidateTarget(kind domain.TargetKind, value string) error
	RegisterAlias(alias, canonical string, kind domain.EntryKind, layer domain.KnowledgeLayer) error
	Version() uint64
}

// IntentParser turns raw text into a resolved intent or a domain error
// (NotUnderstood, AmbiguousIntent, UnknownTarget, RejectedInput).
type IntentParser interface {
	Parse(ctx context.Context, text string, session *domain.Session) (domain.Intent, error)
}

// SecurityService classifies rendered commands. Assessments are never cached.
type SecurityService interface {
	Assess(cmd domain.Command) (domain.RiskAssessment, error)
}

// CommandExecutor runs or previews a rendered command.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd domain.Command, opts domain.ExecOptions) (domain.ExecutionResult, error)
}

// ConfirmationPrompter collects a typed confirmation for risky commands.
// A nil token means the user declined.
type ConfirmationPrompter interface {
	Confirm(ctx context.Context, risk domain.RiskAssessment, command string) (*domain.ConfirmToken, error)
	Enabled() bool
}

// FeedbackRecorder accepts interaction records without blocking the caller.
type FeedbackRecorder interface {
	Record(domain.FeedbackRecord)
}

// FeedbackRepository persists interaction records append-only.
type FeedbackRepository interface {
	Append(ctx context.Context, record domain.FeedbackRecord) error
	Records(ctx context.Context, limit int, search string) ([]domain.FeedbackRecord, error)
}

// AliasRepository persists promoted aliases.
type AliasRepository interface {
	LoadAliases(ctx context.Context) ([]domain.LearnedAlias, error)
	SaveAlias(ctx context.Context, alias domain.LearnedAlias) error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
