package config

import (
	"strings"
	"testing"

	"github.com/doeshing/nixsay/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		Preferences: domain.Preferences{PreferredMethod: "user", ConfidenceThreshold: 0.5, Personality: "friendly"},
		Security:    domain.SecuritySettings{RulesFile: "/tmp/guardrail.yaml", UnmatchedTier: "safe"},
		Execution:   domain.ExecutionSettings{QueryTimeout: "30s", BackoffBase: "1s"},
		Feedback:    domain.FeedbackSettings{Enabled: true, Database: "/tmp/f.db", PromotionThreshold: 3},
		Session:     domain.SessionSettings{MaxTurns: 5, TTL: "10m"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*domain.Config) {}},
		{name: "bad method", mutate: func(c *domain.Config) { c.Preferences.PreferredMethod = "flatpak" }, wantErr: "preferred_method"},
		{name: "threshold above one", mutate: func(c *domain.Config) { c.Preferences.ConfidenceThreshold = 1.5 }, wantErr: "confidence_threshold"},
		{name: "bad personality", mutate: func(c *domain.Config) { c.Preferences.Personality = "grumpy" }, wantErr: "personality"},
		{name: "missing rules file", mutate: func(c *domain.Config) { c.Security.RulesFile = "" }, wantErr: "rules_file"},
		{name: "bad unmatched tier", mutate: func(c *domain.Config) { c.Security.UnmatchedTier = "extreme" }, wantErr: "unmatched_tier"},
		{name: "bad timeout", mutate: func(c *domain.Config) { c.Execution.QueryTimeout = "soon" }, wantErr: "query_timeout"},
		{name: "negative timeout", mutate: func(c *domain.Config) { c.Execution.MutationTimeout = "-1s" }, wantErr: "mutation_timeout"},
		{name: "promotion threshold one", mutate: func(c *domain.Config) { c.Feedback.PromotionThreshold = 1 }, wantErr: "promotion_threshold"},
		{name: "feedback without database", mutate: func(c *domain.Config) { c.Feedback.Database = "" }, wantErr: "feedback.database"},
		{name: "disabled feedback needs no database", mutate: func(c *domain.Config) { c.Feedback = domain.FeedbackSettings{} }},
		{name: "bad ttl", mutate: func(c *domain.Config) { c.Session.TTL = "forever" }, wantErr: "session.ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
