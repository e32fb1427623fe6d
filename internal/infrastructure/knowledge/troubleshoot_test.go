package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/nixsay/internal/domain"
)

func TestTroubleshoot(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"pasted error output", "bash: htop: command not found", "command not found"},
		{"partial symptom", "Read-Only", "read-only file system"},
		{"matches solution text", "allowUnfree", "unfree license"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.Troubleshoot(tt.input)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Symptom)
			assert.NotEmpty(t, got[0].Cause)
		})
	}

	assert.Empty(t, store.Troubleshoot("segmentation fault"))
	assert.Empty(t, store.Troubleshoot("   "))
}

func TestPracticeLookup(t *testing.T) {
	store := newTestStore(t)

	p, ok := store.Practice("package_installation")
	require.True(t, ok)
	assert.Contains(t, p.Example, "environment.systemPackages")

	_, ok = store.Practice("System-Updates")
	assert.True(t, ok)
	_, ok = store.Practice("dotfiles")
	assert.False(t, ok)

	topics := []string{}
	for _, p := range store.Practices() {
		topics = append(topics, p.Topic)
	}
	assert.Equal(t, []string{"configuration management", "package installation", "system updates"}, topics)
}

func TestOverridesReplaceProblems(t *testing.T) {
	store := newTestStore(t)
	before := len(store.Troubleshoot("command not found"))

	require.NoError(t, store.Apply(Catalog{
		Problems: []domain.Problem{
			{Symptom: "Command not found", Cause: "custom", Solution: "use comma"},
			{Symptom: "hash mismatch", Cause: "fixed-output derivation changed", Solution: "update the hash"},
		},
		Practices: []domain.Practice{{Topic: "system updates", Practice: "pin nixpkgs"}},
	}, domain.LayerOverride))

	got := store.Troubleshoot("command not found")
	require.Len(t, got, before)
	assert.Equal(t, "custom", got[0].Cause)
	assert.Len(t, store.Troubleshoot("error: hash mismatch in fixed-output derivation"), 1)

	p, ok := store.Practice("system updates")
	require.True(t, ok)
	assert.Equal(t, "pin nixpkgs", p.Practice)
}
