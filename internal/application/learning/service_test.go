package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/infrastructure/feedback"
	"github.com/doeshing/nixsay/internal/infrastructure/knowledge"
	"github.com/doeshing/nixsay/internal/infrastructure/storage"
)

func record(id, session, raw, target string, via domain.ResolutionKind, success bool) domain.FeedbackRecord {
	return domain.FeedbackRecord{
		ID:         id,
		SessionID:  session,
		Input:      "install " + raw,
		Action:     domain.ActionInstall,
		Operation:  "install",
		Target:     target,
		RawTarget:  raw,
		Resolution: via,
		Command:    "nix profile install nixpkgs#" + target,
		Tier:       domain.TierLow,
		Success:    success,
		Timestamp:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

type knownNames map[string]bool

func (k knownNames) IsKnownName(word string) bool { return k[word] }

func TestSuggestAliasPromotions(t *testing.T) {
	records := []domain.FeedbackRecord{
		record("1", "s1", "firefx", "firefox", domain.ResolvedFuzzy, true),
		record("2", "s2", "firefx", "firefox", domain.ResolvedFuzzy, true),
		record("3", "s3", "firefx", "firefox", domain.ResolvedFuzzy, true),
		// Same session twice counts once.
		record("4", "s1", "vlcc", "vlc", domain.ResolvedFuzzy, true),
		record("5", "s1", "vlcc", "vlc", domain.ResolvedFuzzy, true),
		record("6", "s2", "vlcc", "vlc", domain.ResolvedFuzzy, true),
		// A single failure disqualifies.
		record("7", "s1", "gimpp", "gimp", domain.ResolvedFuzzy, true),
		record("8", "s2", "gimpp", "gimp", domain.ResolvedFuzzy, true),
		record("9", "s3", "gimpp", "gimp", domain.ResolvedFuzzy, false),
		// Conflicting canonicals disqualify.
		record("10", "s1", "vimm", "vim", domain.ResolvedFuzzy, true),
		record("11", "s2", "vimm", "vim", domain.ResolvedFuzzy, true),
		record("12", "s3", "vimm", "neovim", domain.ResolvedFuzzy, true),
		// Exact and alias resolutions teach nothing.
		record("13", "s1", "chrome", "google-chrome", domain.ResolvedAlias, true),
		record("14", "s2", "chrome", "google-chrome", domain.ResolvedAlias, true),
		record("15", "s3", "chrome", "google-chrome", domain.ResolvedAlias, true),
		// Already known.
		record("16", "s1", "kity", "kitty", domain.ResolvedFuzzy, true),
		record("17", "s2", "kity", "kitty", domain.ResolvedFuzzy, true),
		record("18", "s3", "kity", "kitty", domain.ResolvedFuzzy, true),
	}

	got := SuggestAliasPromotions(records, knownNames{"kity": true}, 3)
	want := []domain.AliasPromotion{{Alias: "firefx", Canonical: "firefox", Kind: domain.KindPackage, Support: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("promotions mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, SuggestAliasPromotions(records[:2], nil, 3), "below threshold")
	assert.Len(t, SuggestAliasPromotions(records[:6], nil, 1), 1, "thresholds of 1 are raised to the default")
}

func TestPromoteRegistersAndPersists(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	repo := feedback.NewSQLiteStore(db)
	for i, session := range []string{"s1", "s2", "s3"} {
		require.NoError(t, repo.Append(ctx, record(string(rune('a'+i)), session, "firefx", "firefox", domain.ResolvedFuzzy, true)))
	}

	kb, err := knowledge.NewStore(knowledge.Options{})
	require.NoError(t, err)
	aliases := knowledge.NewSQLiteAliasStore(db)
	svc := &Service{Feedback: repo, Knowledge: kb, Aliases: aliases, Threshold: 3}

	preview, err := svc.Promote(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, preview.Examined)
	assert.Len(t, preview.Proposed, 1)
	assert.Empty(t, preview.Promoted)
	assert.False(t, kb.IsAlias(domain.KindPackage, "firefx"), "preview changes nothing")

	report, err := svc.Promote(ctx, true)
	require.NoError(t, err)
	require.Len(t, report.Promoted, 1)
	assert.True(t, kb.IsAlias(domain.KindPackage, "firefx"))

	res, err := kb.Resolve(domain.KindPackage, "firefx")
	require.NoError(t, err)
	assert.Equal(t, domain.ResolvedAlias, res.Via)

	saved, err := aliases.LoadAliases(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "firefox", saved[0].Canonical)
	assert.Equal(t, 3, saved[0].Support)

	again, err := svc.Promote(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, again.Proposed, "promoted aliases are not proposed twice")
}

func TestPromoteWithoutAliasStorageChangesNothing(t *testing.T) {
	ctx := context.Background()
	repo := feedback.NewMemoryStore(0)
	for i, session := range []string{"s1", "s2", "s3"} {
		require.NoError(t, repo.Append(ctx, record(string(rune('a'+i)), session, "firefx", "firefox", domain.ResolvedFuzzy, true)))
	}
	kb, err := knowledge.NewStore(knowledge.Options{})
	require.NoError(t, err)
	version := kb.Version()
	svc := &Service{Feedback: repo, Knowledge: kb, Threshold: 3}

	preview, err := svc.Promote(ctx, false)
	require.NoError(t, err)
	assert.Len(t, preview.Proposed, 1, "previews work without alias storage")

	report, err := svc.Promote(ctx, true)
	assert.Equal(t, domain.KindStorageUnavailable, domain.KindOf(err))
	assert.Empty(t, report.Promoted)
	assert.False(t, kb.IsAlias(domain.KindPackage, "firefx"))
	assert.Equal(t, version, kb.Version())
}
