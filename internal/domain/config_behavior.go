package domain

import "time"

// GetPreferredMethod returns the configured method, falling back to user
// profiles for unknown values.
func (c *Config) GetPreferredMethod() Method {
	if method, ok := ParseMethod(c.Preferences.PreferredMethod); ok {
		return method
	}
	return DefaultPreferredMethod
}

// GetConfidenceThreshold returns the clarification threshold in (0, 1].
func (c *Config) GetConfidenceThreshold() float64 {
	threshold := c.Preferences.ConfidenceThreshold
	if threshold <= 0 || threshold > 1 {
		return DefaultConfidenceThreshold
	}
	return threshold
}

// GetPersonality returns the renderer style.
func (c *Config) GetPersonality() string {
	switch c.Preferences.Personality {
	case "friendly", "minimal", "technical":
		return c.Preferences.Personality
	default:
		return "friendly"
	}
}

// GetMaxEditDistance returns the fuzzy lookup bound.
func (c *Config) GetMaxEditDistance() int {
	if c.Knowledge.MaxEditDistance <= 0 {
		return DefaultMaxEditDistance
	}
	return c.Knowledge.MaxEditDistance
}

// GetUnmatchedTier returns the tier for commands no rule matches.
func (c *Config) GetUnmatchedTier() RiskTier {
	if c.Security.UnmatchedTier == "" {
		return TierSafe
	}
	tier, err := ParseRiskTier(c.Security.UnmatchedTier)
	if err != nil {
		return TierSafe
	}
	return tier
}

// TimeoutFor returns the wall-clock limit for an operation class.
func (c *Config) TimeoutFor(class OperationClass) time.Duration {
	switch class {
	case ClassNetwork:
		return parseDurationOr(c.Execution.NetworkTimeout, DefaultNetworkTimeout)
	case ClassMutation:
		return parseDurationOr(c.Execution.MutationTimeout, DefaultMutationTimeout)
	default:
		return parseDurationOr(c.Execution.QueryTimeout, DefaultQueryTimeout)
	}
}

// GetMaxAttempts returns the retry budget for idempotent operations.
func (c *Config) GetMaxAttempts() int {
	if c.Execution.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return c.Execution.MaxAttempts
}

// GetBackoffBase returns the first retry delay.
func (c *Config) GetBackoffBase() time.Duration {
	return parseDurationOr(c.Execution.BackoffBase, DefaultBackoffBase)
}

// GetBackoffMax caps the retry delay.
func (c *Config) GetBackoffMax() time.Duration {
	return parseDurationOr(c.Execution.BackoffMax, DefaultBackoffMax)
}

// GetReadOnlyWorkers returns the read-only pool size.
func (c *Config) GetReadOnlyWorkers() int {
	if c.Execution.ReadOnlyWorkers <= 0 {
		return DefaultReadOnlyWorkers
	}
	return c.Execution.ReadOnlyWorkers
}

// GetPromotionThreshold returns the distinct-session support an alias needs.
func (c *Config) GetPromotionThreshold() int {
	if c.Feedback.PromotionThreshold <= 1 {
		return DefaultPromotionThreshold
	}
	return c.Feedback.PromotionThreshold
}

// GetFeedbackBufferSize returns the async recorder queue length.
func (c *Config) GetFeedbackBufferSize() int {
	if c.Feedback.BufferSize <= 0 {
		return DefaultFeedbackBufferSize
	}
	return c.Feedback.BufferSize
}

// GetFeedbackMemoryLimit bounds the in-memory fallback buffer.
func (c *Config) GetFeedbackMemoryLimit() int {
	if c.Feedback.MemoryLimit <= 0 {
		return DefaultFeedbackMemoryLimit
	}
	return c.Feedback.MemoryLimit
}

// GetSessionMaxTurns returns the follow-up budget per context.
func (c *Config) GetSessionMaxTurns() int {
	if c.Session.MaxTurns <= 0 {
		return DefaultSessionMaxTurns
	}
	return c.Session.MaxTurns
}

// GetSessionTTL returns how long context survives without a turn.
func (c *Config) GetSessionTTL() time.Duration {
	return parseDurationOr(c.Session.TTL, DefaultSessionTTL)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
