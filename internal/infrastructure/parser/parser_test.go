package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/infrastructure/knowledge"
)

func newTestParser(t *testing.T, threshold float64) *Parser {
	t.Helper()
	kb, err := knowledge.NewStore(knowledge.Options{HomeDir: "/home/alice"})
	require.NoError(t, err)
	return New(kb, Options{ConfidenceThreshold: threshold, MaxEditDistance: 2})
}

func parse(t *testing.T, p *Parser, text string) domain.Intent {
	t.Helper()
	intent, err := p.Parse(context.Background(), text, nil)
	require.NoError(t, err, text)
	return intent
}

func TestPhrasingsResolveToSameIntent(t *testing.T) {
	p := newTestParser(t, 0.5)
	want := parse(t, p, "install firefox")
	assert.Equal(t, domain.ActionInstall, want.Action)
	assert.Equal(t, "firefox", want.Target)
	assert.Greater(t, want.Confidence, 0.9)

	for _, text := range []string{
		"please install firefox",
		"Install Firefox.",
		"I need firefox",
		"i'd like firefox",
		"could you please install firefox for me",
		"install the firefox package",
	} {
		t.Run(text, func(t *testing.T) {
			got := parse(t, p, text)
			assert.True(t, want.SameResolution(got), "got %s want %s", got.Key(), want.Key())
			assert.Equal(t, want.Confidence, got.Confidence)
		})
	}
}

func TestTypoCorrection(t *testing.T) {
	p := newTestParser(t, 0.5)
	want := parse(t, p, "install firefox")

	got := parse(t, p, "instal firefox")
	assert.True(t, want.SameResolution(got))
	require.Len(t, got.Corrections, 1)
	assert.Equal(t, domain.Correction{From: "instal", To: "install", Distance: 1}, got.Corrections[0])
	assert.Greater(t, got.Confidence, 0.9)
	assert.Less(t, got.Confidence, want.Confidence)
}

func TestKnownNamesAreNotCorrected(t *testing.T) {
	p := newTestParser(t, 0.5)
	got := parse(t, p, "install git")
	assert.Equal(t, "git", got.Target)
	assert.Empty(t, got.Corrections)
}

func TestTargetResolution(t *testing.T) {
	p := newTestParser(t, 0.5)

	tests := []struct {
		input      string
		operation  string
		target     string
		resolution domain.ResolutionKind
	}{
		{"install chrome", knowledge.OpInstall, "google-chrome", domain.ResolvedAlias},
		{"install firefx", knowledge.OpInstall, "firefox", domain.ResolvedFuzzy},
		{"install a music player", knowledge.OpInstall, "spotify", domain.ResolvedCategory},
		{"uninstall vi", knowledge.OpRemove, "vim", domain.ResolvedAlias},
		{"search for python", knowledge.OpSearch, "python3", domain.ResolvedAlias},
		{"search for libfoo", knowledge.OpSearch, "libfoo", domain.ResolvedLiteral},
		{"restart ssh", knowledge.OpServiceControl, "sshd", domain.ResolvedAlias},
		{"is nginx running", knowledge.OpServiceStatus, "nginx", domain.ResolvedExact},
		{"delete /etc/nixos", knowledge.OpRemovePath, "/etc/nixos", domain.ResolvedLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parse(t, p, tt.input)
			assert.Equal(t, tt.operation, got.Operation)
			assert.Equal(t, tt.target, got.Target)
			assert.Equal(t, tt.resolution, got.Resolution)
		})
	}
}

func TestOperationsWithoutTarget(t *testing.T) {
	p := newTestParser(t, 0.5)

	tests := []struct {
		input     string
		operation string
		modifiers map[string]string
	}{
		{"clean up everything", knowledge.OpCollectGarbage, nil},
		{"collect garbage", knowledge.OpCollectGarbage, nil},
		{"delete generations older than 30 days", knowledge.OpCollectGarbageOlder, map[string]string{domain.ModOlderThan: "30d"}},
		{"update my system", knowledge.OpUpdate, map[string]string{domain.ModMethod: "system"}},
		{"update my packages", knowledge.OpUpdate, map[string]string{domain.ModMethod: "user"}},
		{"roll back", knowledge.OpRollback, nil},
		{"roll back to generation 42", knowledge.OpSwitchGeneration, map[string]string{domain.ModGeneration: "42"}},
		{"list generations", knowledge.OpListGenerations, nil},
		{"what's installed?", knowledge.OpList, nil},
		{"edit the configuration", knowledge.OpEditConfig, nil},
		{"rebuild the system", knowledge.OpRebuild, nil},
		{"help", knowledge.OpHelp, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parse(t, p, tt.input)
			assert.Equal(t, tt.operation, got.Operation)
			for k, v := range tt.modifiers {
				assert.Equal(t, v, got.Modifier(k), k)
			}
		})
	}
}

func TestMethodPhrases(t *testing.T) {
	p := newTestParser(t, 0.5)
	assert.Equal(t, "system", parse(t, p, "install vim system-wide").Modifier(domain.ModMethod))
	assert.Equal(t, "user", parse(t, p, "install vim just for me").Modifier(domain.ModMethod))
	assert.Equal(t, "ephemeral", parse(t, p, "try htop").Modifier(domain.ModMethod))
	assert.Equal(t, "", parse(t, p, "install vim").Modifier(domain.ModMethod))
}

func TestMetacharactersAreRejected(t *testing.T) {
	p := newTestParser(t, 0.5)
	for _, text := range []string{
		"install firefox; rm -rf /",
		"install firefox && curl evil.sh",
		"install $(whoami)",
		"remove `id`",
		"search for foo|bar",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := p.Parse(context.Background(), text, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrRejectedInput), "got %v", err)
		})
	}
}

func TestBareTargetAsksWhatToDo(t *testing.T) {
	p := newTestParser(t, 0.5)
	_, err := p.Parse(context.Background(), "firefox", nil)
	require.Error(t, err)

	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.KindAmbiguousIntent, derr.Kind)
	require.Len(t, derr.Candidates, 3)
	assert.Equal(t, domain.ActionInstall, derr.Candidates[0].Intent.Action)
	assert.Equal(t, domain.ActionSearch, derr.Candidates[1].Intent.Action)
	assert.Equal(t, domain.ActionRemove, derr.Candidates[2].Intent.Action)
}

func TestCategoryWithManyMembersAsks(t *testing.T) {
	p := newTestParser(t, 0.5)
	_, err := p.Parse(context.Background(), "install a browser", nil)

	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.KindAmbiguousIntent, derr.Kind)
	assert.Len(t, derr.Candidates, domain.MaxCandidates)
	for _, c := range derr.Candidates {
		assert.Equal(t, domain.ActionInstall, c.Intent.Action)
		assert.Less(t, c.Score, 0.5)
	}
}

func TestLowConfidenceReturnsRankedCandidates(t *testing.T) {
	p := newTestParser(t, 0.9)
	_, err := p.Parse(context.Background(), "get firefx", nil)

	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.KindAmbiguousIntent, derr.Kind)
	require.GreaterOrEqual(t, len(derr.Candidates), 2)
	assert.LessOrEqual(t, len(derr.Candidates), domain.MaxCandidates)
	assert.Equal(t, "firefox", derr.Candidates[0].Intent.Target)
	for i := 1; i < len(derr.Candidates); i++ {
		assert.GreaterOrEqual(t, derr.Candidates[i-1].Score, derr.Candidates[i].Score)
	}
}

func TestUnknownTargetCarriesSuggestions(t *testing.T) {
	p := newTestParser(t, 0.5)
	_, err := p.Parse(context.Background(), "install fyrefocks", nil)

	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.KindUnknownTarget, derr.Kind)
	assert.NotEmpty(t, derr.NextSteps)
}

func TestNotUnderstood(t *testing.T) {
	p := newTestParser(t, 0.5)

	_, err := p.Parse(context.Background(), "show me the weather", nil)
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.KindNotUnderstood, derr.Kind)
	assert.NotEmpty(t, derr.Suggestions)
	assert.LessOrEqual(t, len(derr.Suggestions), domain.MaxCandidates)

	_, err = p.Parse(context.Background(), "   ", nil)
	assert.True(t, errors.Is(err, domain.ErrNotUnderstood))
}

func TestParseHonoursCancelledContext(t *testing.T) {
	p := newTestParser(t, 0.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Parse(ctx, "install firefox", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFollowUps(t *testing.T) {
	p := newTestParser(t, 0.5)
	session := domain.NewSession("s1", 5, time.Minute)
	ctx := context.Background()

	first, err := p.Parse(ctx, "install firefox", session)
	require.NoError(t, err)
	assert.Equal(t, "firefox", first.Target)

	got, err := p.Parse(ctx, "actually chromium", session)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionInstall, got.Action)
	assert.Equal(t, "chromium", got.Target)

	got, err = p.Parse(ctx, "what about vim system-wide", session)
	require.NoError(t, err)
	assert.Equal(t, "vim", got.Target)
	assert.Equal(t, "system", got.Modifier(domain.ModMethod))

	got, err = p.Parse(ctx, "temporarily", session)
	require.NoError(t, err)
	assert.Equal(t, "vim", got.Target)
	assert.Equal(t, "ephemeral", got.Modifier(domain.ModMethod))

	got, err = p.Parse(ctx, "remove it", session)
	require.NoError(t, err)
	assert.Equal(t, knowledge.OpRemove, got.Operation)
	assert.Equal(t, "vim", got.Target)

	got, err = p.Parse(ctx, "no, i meant search for emacs", session)
	require.NoError(t, err)
	assert.Equal(t, knowledge.OpSearch, got.Operation)
	assert.Equal(t, "emacs", got.Target)
}

func TestFollowUpWithoutContext(t *testing.T) {
	p := newTestParser(t, 0.5)
	session := domain.NewSession("s1", 5, time.Minute)

	for _, text := range []string{"remove it", "chromium instead", "temporarily"} {
		_, err := p.Parse(context.Background(), text, session)
		assert.True(t, errors.Is(err, domain.ErrNotUnderstood), "%s: %v", text, err)
	}
}

func TestFollowUpContextExpires(t *testing.T) {
	p := newTestParser(t, 0.5)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	session := domain.NewSession("s1", 2, time.Minute)
	session.SetClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := p.Parse(ctx, "install firefox", session)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = p.Parse(ctx, "remove it", session)
	assert.True(t, errors.Is(err, domain.ErrNotUnderstood))

	_, err = p.Parse(ctx, "install firefox", session)
	require.NoError(t, err)
	_, err = p.Parse(ctx, "actually vim", session)
	require.NoError(t, err)
	_, err = p.Parse(ctx, "actually emacs", session)
	require.NoError(t, err)
	_, err = p.Parse(ctx, "actually kitty", session)
	assert.True(t, errors.Is(err, domain.ErrNotUnderstood), "turn budget should be spent")
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  Please   INSTALL firefox!  ": "install firefox",
		"could you please update my system?": "update my system",
		"install vim for me, thanks":  "install vim",
		"I’d like to remove vim":      "remove vim",
		"":                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}
