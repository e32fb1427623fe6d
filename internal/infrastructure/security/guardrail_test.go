package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/nixsay/internal/domain"
)

func newDefault(t *testing.T) *Guardrail {
	t.Helper()
	guardrail, err := NewDefaultGuardrail()
	if err != nil {
		t.Fatalf("NewDefaultGuardrail error: %v", err)
	}
	return guardrail
}

func TestGuardrailTiers(t *testing.T) {
	guardrail := newDefault(t)

	tests := []struct {
		command string
		tier    domain.RiskTier
		rule    string
	}{
		{"nix search nixpkgs firefox", domain.TierSafe, "search"},
		{"nix profile list", domain.TierSafe, "list"},
		{"sudo nix-env --list-generations --profile /nix/var/nix/profiles/system", domain.TierSafe, "list"},
		{"systemctl status sshd", domain.TierSafe, "service-status"},
		{"cat /etc/nixos/configuration.nix", domain.TierSafe, "show-config"},
		{"nix profile install nixpkgs#firefox", domain.TierLow, "install-package"},
		{"nix-env -iA nixos.firefox", domain.TierLow, "install-package"},
		{"nix-shell -p htop", domain.TierLow, "ephemeral-shell"},
		{"nix profile remove firefox", domain.TierLow, "remove-package"},
		{"sudo nano /etc/nixos/configuration.nix", domain.TierLow, "edit-config"},
		{"sudo nix-collect-garbage -d", domain.TierMedium, "garbage-collect"},
		{"sudo nixos-rebuild switch --rollback", domain.TierMedium, "rollback"},
		{"sudo systemctl restart nginx", domain.TierMedium, "stop-service"},
		{"nix profile upgrade --all", domain.TierMedium, "profile-upgrade"},
		{"sudo nixos-rebuild switch", domain.TierHigh, "system-rebuild"},
		{"sudo nixos-rebuild switch --upgrade", domain.TierHigh, "system-rebuild"},
		{"rm -rf /home/alice/old-downloads", domain.TierHigh, "recursive-delete"},
		{"rm -rf /etc/nixos", domain.TierCritical, "delete-nixos-config"},
		{"rm -rf /etc/nixos/", domain.TierCritical, "delete-nixos-config"},
		{"rm -rf /", domain.TierCritical, "delete-system-path"},
		{"rm -rf /nix/store", domain.TierCritical, "delete-system-path"},
		{"rm -rf /home/alice", domain.TierCritical, "delete-system-path"},
		{"mkfs.ext4 /dev/sda1", domain.TierCritical, "format-filesystem"},
		{"dd if=/dev/zero of=/dev/sda", domain.TierCritical, "raw-disk-write"},
		{"efibootmgr -b 0001 -B", domain.TierCritical, "remove-boot-entry"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got, err := guardrail.Assess(domain.Command{Text: tt.command})
			if err != nil {
				t.Fatalf("Assess error: %v", err)
			}
			if got.Tier != tt.tier || got.MatchedRule != tt.rule {
				t.Fatalf("got %s/%s, want %s/%s", got.Tier, got.MatchedRule, tt.tier, tt.rule)
			}
			if got.Policy != domain.PolicyFor(tt.tier) {
				t.Fatalf("policy %s for tier %s", got.Policy, got.Tier)
			}
		})
	}
}

func TestGuardrailCriticalOffersAlternative(t *testing.T) {
	guardrail := newDefault(t)
	got, err := guardrail.Assess(domain.Command{Text: "rm -rf /etc/nixos", Operation: "remove-path"})
	if err != nil {
		t.Fatalf("Assess error: %v", err)
	}
	if !got.Blocked() {
		t.Fatalf("expected block, got %+v", got)
	}
	if got.Alternative == "" {
		t.Fatal("expected a safer alternative")
	}
	if got.ConfirmationPhrase != "" {
		t.Fatalf("blocked commands have no confirmation phrase, got %q", got.ConfirmationPhrase)
	}
}

func TestGuardrailConfirmationPhrase(t *testing.T) {
	guardrail := newDefault(t)

	got, _ := guardrail.Assess(domain.Command{Text: "sudo nix-collect-garbage -d", Operation: "collect-garbage"})
	if !got.RequiresConfirmation || got.ConfirmationPhrase != "confirm collect-garbage" {
		t.Fatalf("unexpected assessment %+v", got)
	}

	got, _ = guardrail.Assess(domain.Command{Text: "sudo nix-collect-garbage -d"})
	if got.ConfirmationPhrase != "confirm garbage-collect" {
		t.Fatalf("expected rule id fallback, got %q", got.ConfirmationPhrase)
	}

	got, _ = guardrail.Assess(domain.Command{Text: "nix profile install nixpkgs#vim", Operation: "install"})
	if got.RequiresConfirmation || got.ConfirmationPhrase != "" {
		t.Fatalf("LOW tier needs no confirmation, got %+v", got)
	}
}

func TestGuardrailUnmatchedTier(t *testing.T) {
	strict, err := NewGuardrail(Options{UnmatchedTier: domain.TierMedium})
	if err != nil {
		t.Fatalf("NewGuardrail error: %v", err)
	}
	got, _ := strict.Assess(domain.Command{Text: "uname -a"})
	if got.Tier != domain.TierMedium || got.MatchedRule != "" {
		t.Fatalf("expected configured unmatched tier, got %+v", got)
	}

	got, _ = newDefault(t).Assess(domain.Command{Text: "uname -a"})
	if got.Tier != domain.TierSafe {
		t.Fatalf("expected SAFE default, got %+v", got)
	}
}

func TestGuardrailCustomRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guardrail.yaml")
	doc := `version: 1
rules:
  - id: custom-low
    tier: low
    pattern: 'uname'
    message: harmless
  - id: custom-critical
    tier: critical
    pattern: 'uname -a'
    message: pretend this is dangerous
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	guardrail, err := NewGuardrail(Options{RulesFile: path})
	if err != nil {
		t.Fatalf("NewGuardrail error: %v", err)
	}
	if guardrail.Source() != path {
		t.Fatalf("source = %q", guardrail.Source())
	}
	got, _ := guardrail.Assess(domain.Command{Text: "uname -a"})
	if got.MatchedRule != "custom-critical" {
		t.Fatalf("higher tier must win regardless of file order, got %+v", got)
	}
	if rules := guardrail.Rules(); rules[0].ID != "custom-critical" {
		t.Fatalf("rules not in evaluation order: %+v", rules)
	}
}

func TestGuardrailMissingFileFallsBack(t *testing.T) {
	guardrail, err := NewGuardrail(Options{RulesFile: filepath.Join(t.TempDir(), "absent.yaml")})
	if err != nil {
		t.Fatalf("NewGuardrail error: %v", err)
	}
	if guardrail.Source() != "builtin" || len(guardrail.Rules()) == 0 {
		t.Fatalf("expected builtin rules, got %s with %d rules", guardrail.Source(), len(guardrail.Rules()))
	}
}

func TestGuardrailRejectsBadRules(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad tier":  "rules:\n  - {id: x, tier: extreme, pattern: 'a'}\n",
		"bad regex": "rules:\n  - {id: x, tier: low, pattern: '('}\n",
		"no id":     "rules:\n  - {tier: low, pattern: 'a'}\n",
		"duplicate": "rules:\n  - {id: x, tier: low, pattern: 'a'}\n  - {id: x, tier: low, pattern: 'b'}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := NewGuardrail(Options{RulesFile: path}); err == nil {
				t.Fatal("expected error")
			}
			if _, err := ValidateRulesFile(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
