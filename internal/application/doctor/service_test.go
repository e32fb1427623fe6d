package doctor

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/infrastructure/security"
)

type staticConfig struct {
	cfg domain.Config
	err error
}

func (s staticConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type knowledgeStub struct{}

func (knowledgeStub) Count() int      { return 42 }
func (knowledgeStub) Version() uint64 { return 7 }

type feedbackStub struct {
	degraded bool
	dropped  int64
}

func (f feedbackStub) Degraded() bool { return f.degraded }
func (f feedbackStub) Dropped() int64 { return f.dropped }

type permissiveGuard struct{}

func (permissiveGuard) Assess(domain.Command) (domain.RiskAssessment, error) {
	return domain.RiskAssessment{Tier: domain.TierSafe}, nil
}

func baseConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Security:            domain.SecuritySettings{RulesFile: "/nonexistent/guardrail.yaml"},
		Feedback:            domain.FeedbackSettings{Enabled: true, Database: "/tmp/feedback.db"},
	}
}

func statusOf(t *testing.T, report domain.HealthReport, name string) domain.HealthCheck {
	t.Helper()
	for _, check := range report.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("check %q missing from %+v", name, report.Checks)
	return domain.HealthCheck{}
}

func TestRunHealthy(t *testing.T) {
	guard, err := security.NewDefaultGuardrail()
	require.NoError(t, err)
	svc := &Service{
		ConfigProvider:  staticConfig{cfg: baseConfig()},
		SecurityService: guard,
		Knowledge:       knowledgeStub{},
		Feedback:        feedbackStub{},
		ValidateRules:   func(string) (int, error) { return 0, fs.ErrNotExist },
		LookPath:        func(name string) (string, error) { return "/run/current-system/sw/bin/" + name, nil },
	}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasErrors())
	assert.Equal(t, domain.HealthOK, statusOf(t, report, "Guardrail").Status)
	assert.Equal(t, domain.HealthOK, statusOf(t, report, "Rules file").Status)
	assert.Contains(t, statusOf(t, report, "Knowledge").Details, "42 entries")
	assert.Equal(t, domain.HealthOK, statusOf(t, report, "nix").Status)
}

func TestRunReportsProblems(t *testing.T) {
	svc := &Service{
		ConfigProvider:  staticConfig{cfg: baseConfig()},
		SecurityService: permissiveGuard{},
		Feedback:        feedbackStub{degraded: true},
		ValidateRules:   func(string) (int, error) { return 0, errors.New("rule \"x\": bad pattern") },
		LookPath:        func(string) (string, error) { return "", errors.New("not found") },
	}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasErrors())
	assert.Equal(t, domain.HealthError, statusOf(t, report, "Guardrail").Status)
	assert.Equal(t, domain.HealthError, statusOf(t, report, "Rules file").Status)
	assert.Equal(t, domain.HealthWarn, statusOf(t, report, "Feedback").Status)
	assert.Equal(t, domain.HealthWarn, statusOf(t, report, "Knowledge").Status)
	assert.Equal(t, domain.HealthWarn, statusOf(t, report, "nix").Status)
}

func TestRunConfigFailure(t *testing.T) {
	svc := &Service{ConfigProvider: staticConfig{err: errors.New("boom")}}
	report, err := svc.Run(context.Background())
	require.Error(t, err)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, domain.HealthError, report.Checks[0].Status)
}
