package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	appconfig "github.com/doeshing/nixsay/internal/application/config"
	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// KnowledgeStats exposes the size of the knowledge store.
type KnowledgeStats interface {
	Count() int
	Version() uint64
}

// FeedbackStatus reports whether records are reaching the database.
type FeedbackStatus interface {
	Degraded() bool
	Dropped() int64
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider  ports.ConfigProvider
	SecurityService ports.SecurityService
	Knowledge       KnowledgeStats
	Feedback        FeedbackStatus
	// ValidateRules parses a rules file and returns its rule count.
	ValidateRules func(path string) (int, error)
	// LookPath finds executables; exec.LookPath in production.
	LookPath func(file string) (string, error)
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("format %s, personality %s", cfg.ConfigFormatVersion, cfg.GetPersonality())))
	}

	checks = append(checks, s.rulesCheck(cfg))
	checks = append(checks, s.guardrailCheck())

	if s.Knowledge != nil {
		checks = append(checks, ok("Knowledge", fmt.Sprintf("%d entries (version %d)", s.Knowledge.Count(), s.Knowledge.Version())))
	} else {
		checks = append(checks, warn("Knowledge", "knowledge store not initialized"))
	}

	checks = append(checks, s.feedbackCheck(cfg))
	checks = append(checks, s.toolCheck("nix", "required to run package commands"))
	checks = append(checks, s.toolCheck("nixos-rebuild", "only available on NixOS"))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) rulesCheck(cfg domain.Config) domain.HealthCheck {
	if s.ValidateRules == nil {
		return warn("Rules file", "validator not configured")
	}
	n, err := s.ValidateRules(cfg.Security.RulesFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ok("Rules file", "not present, built-in rules in use")
	case err != nil:
		return fail("Rules file", fmt.Sprintf("%s: %v", cfg.Security.RulesFile, err))
	case n == 0:
		return warn("Rules file", "empty, built-in rules in use")
	default:
		return ok("Rules file", fmt.Sprintf("%d rules in %s", n, cfg.Security.RulesFile))
	}
}

// guardrailCheck confirms the loaded rules still block the canonical
// destructive command.
func (s *Service) guardrailCheck() domain.HealthCheck {
	if s.SecurityService == nil {
		return warn("Guardrail", "security service not initialized")
	}
	sample := domain.Command{Text: "rm -rf /etc/nixos", Argv: []string{"rm", "-rf", "/etc/nixos"}}
	risk, err := s.SecurityService.Assess(sample)
	if err != nil {
		return fail("Guardrail", err.Error())
	}
	if !risk.Blocked() {
		return fail("Guardrail", fmt.Sprintf("%q classified %s, expected critical", sample.Text, risk.Tier))
	}
	return ok("Guardrail", "destructive commands blocked")
}

func (s *Service) feedbackCheck(cfg domain.Config) domain.HealthCheck {
	if !cfg.Feedback.Enabled {
		return ok("Feedback", "disabled")
	}
	if s.Feedback == nil {
		return warn("Feedback", "recorder not initialized")
	}
	if s.Feedback.Degraded() {
		return warn("Feedback", fmt.Sprintf("%s unavailable, recording in memory only", cfg.Feedback.Database))
	}
	if dropped := s.Feedback.Dropped(); dropped > 0 {
		return warn("Feedback", fmt.Sprintf("%d records dropped", dropped))
	}
	return ok("Feedback", cfg.Feedback.Database)
}

func (s *Service) toolCheck(name, why string) domain.HealthCheck {
	if s.LookPath == nil {
		return warn(name, "lookup not configured")
	}
	path, err := s.LookPath(name)
	if err != nil {
		return warn(name, fmt.Sprintf("not found on PATH (%s)", why))
	}
	return ok(name, path)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
