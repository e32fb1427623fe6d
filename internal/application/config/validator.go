package config

import (
	"fmt"
	"time"

	"github.com/doeshing/nixsay/internal/domain"
)

// Validate ensures config structure is consistent. Getters on domain.Config
// fall back silently; Validate is what reports the mistake to the user.
func Validate(cfg domain.Config) error {
	if err := validatePreferences(cfg.Preferences); err != nil {
		return err
	}
	if cfg.Knowledge.MaxEditDistance < 0 {
		return fmt.Errorf("knowledge.max_edit_distance must be >= 0")
	}
	if err := validateSecurity(cfg.Security); err != nil {
		return err
	}
	if err := validateExecution(cfg.Execution); err != nil {
		return err
	}
	if err := validateFeedback(cfg.Feedback); err != nil {
		return err
	}
	return validateSession(cfg.Session)
}

func validatePreferences(p domain.Preferences) error {
	if p.PreferredMethod != "" {
		if _, ok := domain.ParseMethod(p.PreferredMethod); !ok {
			return fmt.Errorf("preferences.preferred_method must be system|user|ephemeral, got %s", p.PreferredMethod)
		}
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("preferences.confidence_threshold must be within [0, 1], got %v", p.ConfidenceThreshold)
	}
	switch p.Personality {
	case "", "friendly", "minimal", "technical":
	default:
		return fmt.Errorf("preferences.personality must be friendly|minimal|technical, got %s", p.Personality)
	}
	return nil
}

func validateSecurity(sec domain.SecuritySettings) error {
	if sec.RulesFile == "" {
		return fmt.Errorf("security.rules_file must be set")
	}
	if sec.UnmatchedTier != "" {
		if _, err := domain.ParseRiskTier(sec.UnmatchedTier); err != nil {
			return fmt.Errorf("security.unmatched_tier: %w", err)
		}
	}
	return nil
}

func validateExecution(exec domain.ExecutionSettings) error {
	durations := []struct {
		key   string
		value string
	}{
		{"execution.query_timeout", exec.QueryTimeout},
		{"execution.network_timeout", exec.NetworkTimeout},
		{"execution.mutation_timeout", exec.MutationTimeout},
		{"execution.backoff_base", exec.BackoffBase},
		{"execution.backoff_max", exec.BackoffMax},
	}
	for _, d := range durations {
		if err := validateDuration(d.key, d.value); err != nil {
			return err
		}
	}
	if exec.MaxAttempts < 0 {
		return fmt.Errorf("execution.max_attempts must be >= 0")
	}
	if exec.ReadOnlyWorkers < 0 {
		return fmt.Errorf("execution.read_only_workers must be >= 0")
	}
	return nil
}

func validateFeedback(fb domain.FeedbackSettings) error {
	if fb.Enabled && fb.Database == "" {
		return fmt.Errorf("feedback.database must be set when feedback is enabled")
	}
	if fb.PromotionThreshold == 1 {
		return fmt.Errorf("feedback.promotion_threshold must be at least 2; one session is not agreement")
	}
	if fb.BufferSize < 0 || fb.MemoryLimit < 0 {
		return fmt.Errorf("feedback.buffer_size and feedback.memory_limit must be >= 0")
	}
	return nil
}

func validateSession(s domain.SessionSettings) error {
	if s.MaxTurns < 0 {
		return fmt.Errorf("session.max_turns must be >= 0")
	}
	return validateDuration("session.ttl", s.TTL)
}

func validateDuration(key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s invalid: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", key)
	}
	return nil
}
