package domain

import (
	"fmt"
	"strings"
)

// RiskTier is the ordered danger classification of a rendered command.
type RiskTier int

const (
	TierSafe RiskTier = iota
	TierLow
	TierMedium
	TierHigh
	TierCritical
)

func (t RiskTier) String() string {
	switch t {
	case TierSafe:
		return "SAFE"
	case TierLow:
		return "LOW"
	case TierMedium:
		return "MEDIUM"
	case TierHigh:
		return "HIGH"
	case TierCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("TIER(%d)", int(t))
	}
}

// AtLeast reports whether t is as severe as other or more.
func (t RiskTier) AtLeast(other RiskTier) bool {
	return t >= other
}

// ParseRiskTier reads a tier name case-insensitively.
func ParseRiskTier(value string) (RiskTier, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "safe":
		return TierSafe, nil
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	case "critical":
		return TierCritical, nil
	default:
		return TierSafe, fmt.Errorf("unknown risk tier %q", value)
	}
}

// ConfirmationPolicy says what the caller must supply before execution.
type ConfirmationPolicy string

const (
	PolicyAllow             ConfirmationPolicy = "allow"
	PolicyTypedConfirm      ConfirmationPolicy = "typed_confirm"
	PolicyConfirmAndRestate ConfirmationPolicy = "confirm_and_restate"
	PolicyBlock             ConfirmationPolicy = "block"
)

// PolicyFor maps a tier to its confirmation policy.
func PolicyFor(tier RiskTier) ConfirmationPolicy {
	switch {
	case tier >= TierCritical:
		return PolicyBlock
	case tier == TierHigh:
		return PolicyConfirmAndRestate
	case tier == TierMedium:
		return PolicyTypedConfirm
	default:
		return PolicyAllow
	}
}

// RiskAssessment is computed for every command and never cached.
type RiskAssessment struct {
	Tier                 RiskTier
	MatchedRule          string
	Rationale            string
	RequiresConfirmation bool
	Policy               ConfirmationPolicy
	ConfirmationPhrase   string
	Alternative          string
}

// Blocked reports whether no confirmation can unlock the command.
func (a RiskAssessment) Blocked() bool {
	return a.Policy == PolicyBlock
}

// ConfirmToken carries what the user typed to approve a command.
type ConfirmToken struct {
	Phrase      string
	Restatement string
}

// ConfirmationPhraseFor returns the phrase a user must type for an operation.
func ConfirmationPhraseFor(operation string) string {
	return "confirm " + operation
}

// Accepts checks a token against the policy. Blocked assessments accept nothing.
func (a RiskAssessment) Accepts(token *ConfirmToken, command string) bool {
	switch a.Policy {
	case PolicyAllow:
		return true
	case PolicyBlock:
		return false
	}
	if token == nil {
		return false
	}
	if normalizeConfirmation(token.Phrase) != normalizeConfirmation(a.ConfirmationPhrase) {
		return false
	}
	if a.Policy == PolicyConfirmAndRestate {
		return strings.Join(strings.Fields(token.Restatement), " ") == strings.Join(strings.Fields(command), " ")
	}
	return true
}

func normalizeConfirmation(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
