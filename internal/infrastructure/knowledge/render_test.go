package knowledge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/nixsay/internal/domain"
)

func TestRenderMethods(t *testing.T) {
	store := newTestStore(t)
	intent := domain.Intent{Action: domain.ActionInstall, Operation: OpInstall, Target: "firefox"}

	tests := []struct {
		name      string
		modifier  string
		preferred domain.Method
		want      string
	}{
		{"preferred user", "", domain.MethodUser, "nix profile install nixpkgs#firefox"},
		{"preferred system", "", domain.MethodSystem, "sudo nano /etc/nixos/configuration.nix"},
		{"intent overrides preference", "ephemeral", domain.MethodUser, "nix-shell -p firefox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := intent.WithModifier(domain.ModMethod, tt.modifier)
			cmd, err := store.Render(in, tt.preferred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Text)
			assert.Equal(t, cmd.Text, joinArgv(cmd.Argv))
		})
	}
}

func TestSystemInstallIsDeclarative(t *testing.T) {
	store := newTestStore(t)
	intent := domain.Intent{Action: domain.ActionInstall, Operation: OpInstall, Target: "firefox"}

	cmd, err := store.Render(intent, domain.MethodSystem)
	require.NoError(t, err)
	assert.NotContains(t, cmd.Text, "nix-env")
	assert.True(t, cmd.Interactive)
	assert.Equal(t, "firefox", cmd.Target)
	assert.Contains(t, cmd.Explanation, "environment.systemPackages")
	assert.Contains(t, cmd.Explanation, "[ firefox ]")

	cmd, err = store.Render(intent, domain.MethodUser)
	require.NoError(t, err)
	assert.False(t, cmd.Interactive)
	assert.Contains(t, cmd.Explanation, "user install")

	cmd, err = store.Render(domain.Intent{Action: domain.ActionRemove, Operation: OpRemove, Target: "firefox"}, domain.MethodSystem)
	require.NoError(t, err)
	assert.NotContains(t, cmd.Text, "nix-env")
	assert.Contains(t, cmd.Explanation, "environment.systemPackages")
}

func TestRenderFallsBackToDefaultMethod(t *testing.T) {
	store := newTestStore(t)
	cmd, err := store.Render(domain.Intent{Action: domain.ActionSearch, Operation: OpSearch, Target: "firefox"}, domain.MethodSystem)
	require.NoError(t, err)
	assert.Equal(t, "nix search nixpkgs firefox", cmd.Text)
	assert.True(t, cmd.Idempotent)
	assert.Equal(t, domain.ClassNetwork, cmd.Class)
	assert.Contains(t, cmd.Explanation, "firefox")
}

func TestRenderParameters(t *testing.T) {
	store := newTestStore(t)

	cmd, err := store.Render(domain.Intent{
		Action:    domain.ActionRollback,
		Operation: OpSwitchGeneration,
		Modifiers: map[string]string{domain.ModGeneration: "42"},
	}, domain.MethodUser)
	require.NoError(t, err)
	assert.Equal(t, "sudo nix-env --switch-generation 42 -p /nix/var/nix/profiles/system", cmd.Text)

	cmd, err = store.Render(domain.Intent{
		Action:    domain.ActionService,
		Operation: OpServiceControl,
		Target:    "networkmanager",
		Modifiers: map[string]string{domain.ModServiceOp: "restart"},
	}, domain.MethodUser)
	require.NoError(t, err)
	assert.Equal(t, "sudo systemctl restart NetworkManager", cmd.Text)

	cmd, err = store.Render(domain.Intent{Action: domain.ActionRemove, Operation: OpRemovePath, Target: "~/scratch"}, domain.MethodUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"rm", "-rf", "/home/alice/scratch"}, cmd.Argv)
}

func TestRenderCleansPaths(t *testing.T) {
	store := newTestStore(t)
	tests := []struct {
		target string
		want   string
	}{
		{"//etc", "/etc"},
		{"/./etc", "/etc"},
		{"//etc/nixos", "/etc/nixos"},
		{"/etc/nixos/", "/etc/nixos"},
		{"/./nix", "/nix"},
		{"//", "/"},
		{"/home//alice", "/home/alice"},
		{"~//scratch/./old", "/home/alice/scratch/old"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			cmd, err := store.Render(domain.Intent{Action: domain.ActionRemove, Operation: OpRemovePath, Target: tt.target}, domain.MethodUser)
			require.NoError(t, err)
			assert.Equal(t, "rm -rf "+tt.want, cmd.Text)
		})
	}
}

func TestRenderRejectsMissingOrInvalidParameters(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name   string
		intent domain.Intent
	}{
		{"missing generation", domain.Intent{Operation: OpSwitchGeneration}},
		{"non-numeric generation", domain.Intent{Operation: OpSwitchGeneration, Modifiers: map[string]string{domain.ModGeneration: "1;reboot"}}},
		{"bad service op", domain.Intent{Operation: OpServiceControl, Target: "sshd", Modifiers: map[string]string{domain.ModServiceOp: "kill"}}},
		{"missing target", domain.Intent{Operation: OpInstall}},
		{"alias instead of canonical", domain.Intent{Operation: OpInstall, Target: "ff"}},
		{"unknown operation", domain.Intent{Operation: "format-disk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Render(tt.intent, domain.MethodUser)
			assert.Error(t, err)
		})
	}
}

// Shell metacharacters in the target are rejected before any command exists.
func TestMetacharacterBoundary(t *testing.T) {
	store := newTestStore(t)
	inputs := []string{
		"firefox; rm -rf /",
		"firefox|cat",
		"firefox&&reboot",
		"$(reboot)",
		"`id`",
		"fire\x00fox",
		"firefox\nrm",
		"firefox>out",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			err := store.ValidateTarget(domain.TargetPackage, input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrRejectedInput))

			_, err = store.Render(domain.Intent{Operation: OpInstall, Target: input}, domain.MethodUser)
			assert.True(t, errors.Is(err, domain.ErrRejectedInput), "render must reject %q", input)
		})
	}
}

func TestValidatePath(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.ValidateTarget(domain.TargetPath, "/etc/nixos"))
	assert.NoError(t, store.ValidateTarget(domain.TargetPath, "~/Downloads/old"))
	assert.Error(t, store.ValidateTarget(domain.TargetPath, "/tmp/../etc"))
	assert.Error(t, store.ValidateTarget(domain.TargetPath, "relative/path"))
	assert.Error(t, store.ValidateTarget(domain.TargetPath, "/tmp/*"))
}

func joinArgv(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
