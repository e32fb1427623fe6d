package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/doeshing/nixsay/internal/domain"
)

func TestPrompterConfirm(t *testing.T) {
	medium := domain.RiskAssessment{Tier: domain.TierMedium, Policy: domain.PolicyTypedConfirm, ConfirmationPhrase: "confirm remove"}
	high := domain.RiskAssessment{Tier: domain.TierHigh, Policy: domain.PolicyConfirmAndRestate, ConfirmationPhrase: "confirm rebuild"}

	tests := []struct {
		name  string
		risk  domain.RiskAssessment
		input string
		want  *domain.ConfirmToken
	}{
		{name: "typed phrase", risk: medium, input: "confirm remove\n", want: &domain.ConfirmToken{Phrase: "confirm remove"}},
		{name: "empty declines", risk: medium, input: "\n", want: nil},
		{name: "restated", risk: high, input: "confirm rebuild\nsudo nixos-rebuild switch\n", want: &domain.ConfirmToken{Phrase: "confirm rebuild", Restatement: "sudo nixos-rebuild switch"}},
		{name: "restatement skipped", risk: high, input: "confirm rebuild\n\n", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)
			got, err := p.Confirm(context.Background(), tt.risk, "sudo nixos-rebuild switch")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), tt.risk.ConfirmationPhrase)
		})
	}
}

func TestPrompterChoose(t *testing.T) {
	candidates := []domain.Candidate{{Description: "install firefox"}, {Description: "search firefx"}}
	tests := []struct {
		input string
		want  int
	}{
		{input: "2\n", want: 1},
		{input: "\n", want: -1},
		{input: "7\n", want: -1},
		{input: "first\n", want: -1},
	}
	for _, tt := range tests {
		p := NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})
		got, err := p.Choose(context.Background(), candidates)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestPrompterConfirmStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewPrompter(pr, &bytes.Buffer{})
	risk := domain.RiskAssessment{Tier: domain.TierMedium, Policy: domain.PolicyTypedConfirm, ConfirmationPhrase: "confirm remove"}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := p.Confirm(ctx, risk, "nix profile remove firefox")
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Confirm kept waiting for input after cancellation")
	}

	// A line typed after the cancel goes to the next prompt, not a lost reader.
	go func() { _, _ = io.WriteString(pw, "exit\n") }()
	line, err := p.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "exit", line)
}

func TestPrompterReadLineCancelledUpFront(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPrompter(strings.NewReader("never read\n"), &bytes.Buffer{})
	_, err := p.ReadLine(ctx, "> ")
	assert.ErrorIs(t, err, context.Canceled)

	line, err := p.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "never read", line)
}
