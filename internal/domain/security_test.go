package domain_test

import (
	"testing"

	"github.com/doeshing/nixsay/internal/domain"
)

func TestRiskTierOrdering(t *testing.T) {
	tiers := []domain.RiskTier{domain.TierSafe, domain.TierLow, domain.TierMedium, domain.TierHigh, domain.TierCritical}
	for i := 1; i < len(tiers); i++ {
		if !(tiers[i-1] < tiers[i]) {
			t.Fatalf("%s should be below %s", tiers[i-1], tiers[i])
		}
		if !tiers[i].AtLeast(tiers[i-1]) {
			t.Fatalf("%s should be at least %s", tiers[i], tiers[i-1])
		}
	}
}

func TestPolicyFor(t *testing.T) {
	tests := map[domain.RiskTier]domain.ConfirmationPolicy{
		domain.TierSafe:     domain.PolicyAllow,
		domain.TierLow:      domain.PolicyAllow,
		domain.TierMedium:   domain.PolicyTypedConfirm,
		domain.TierHigh:     domain.PolicyConfirmAndRestate,
		domain.TierCritical: domain.PolicyBlock,
	}
	for tier, want := range tests {
		if got := domain.PolicyFor(tier); got != want {
			t.Errorf("%s: got %s, want %s", tier, got, want)
		}
	}
}

func TestRiskAssessmentAccepts(t *testing.T) {
	const command = "sudo nixos-rebuild switch"
	medium := domain.RiskAssessment{
		Tier:               domain.TierMedium,
		Policy:             domain.PolicyTypedConfirm,
		ConfirmationPhrase: "confirm collect-garbage",
	}
	high := domain.RiskAssessment{
		Tier:               domain.TierHigh,
		Policy:             domain.PolicyConfirmAndRestate,
		ConfirmationPhrase: "confirm rebuild",
	}
	critical := domain.RiskAssessment{
		Tier:               domain.TierCritical,
		Policy:             domain.PolicyBlock,
		ConfirmationPhrase: "confirm remove-path",
	}

	tests := []struct {
		name  string
		risk  domain.RiskAssessment
		token *domain.ConfirmToken
		want  bool
	}{
		{"medium without token", medium, nil, false},
		{"medium bare yes", medium, &domain.ConfirmToken{Phrase: "yes"}, false},
		{"medium typed phrase", medium, &domain.ConfirmToken{Phrase: "  Confirm   collect-garbage "}, true},
		{"high phrase only", high, &domain.ConfirmToken{Phrase: "confirm rebuild"}, false},
		{"high wrong restatement", high, &domain.ConfirmToken{Phrase: "confirm rebuild", Restatement: "nixos-rebuild switch"}, false},
		{"high restated", high, &domain.ConfirmToken{Phrase: "confirm rebuild", Restatement: command}, true},
		{"critical never", critical, &domain.ConfirmToken{Phrase: "confirm remove-path", Restatement: command}, false},
		{"safe always", domain.RiskAssessment{Policy: domain.PolicyAllow}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.risk.Accepts(tt.token, command); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
