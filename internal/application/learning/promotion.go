package learning

import (
	"sort"
	"strings"

	"github.com/doeshing/nixsay/internal/domain"
)

// AliasIndex is the part of the knowledge store promotion needs.
type AliasIndex interface {
	IsKnownName(word string) bool
}

// kindForAction maps an action to the namespace its target lives in.
func kindForAction(action domain.Action) (domain.EntryKind, bool) {
	switch action {
	case domain.ActionInstall, domain.ActionRemove:
		return domain.KindPackage, true
	case domain.ActionService:
		return domain.KindService, true
	default:
		return "", false
	}
}

type evidence struct {
	canonical  string
	kind       domain.EntryKind
	sessions   map[string]bool
	conflicted bool
	failed     bool
}

// SuggestAliasPromotions proposes raw spellings that users keep resolving
// by fuzzy or category match. A spelling qualifies only when every record
// succeeded, all of them agree on one canonical target and distinct
// sessions reach the threshold. Names the index already knows are skipped.
func SuggestAliasPromotions(records []domain.FeedbackRecord, index AliasIndex, threshold int) []domain.AliasPromotion {
	if threshold <= 1 {
		threshold = domain.DefaultPromotionThreshold
	}
	groups := map[string]*evidence{}
	var order []string
	for _, rec := range records {
		if rec.Resolution != domain.ResolvedFuzzy && rec.Resolution != domain.ResolvedCategory {
			continue
		}
		kind, ok := kindForAction(rec.Action)
		if !ok {
			continue
		}
		raw := strings.ToLower(strings.TrimSpace(rec.RawTarget))
		if raw == "" || raw == rec.Target || strings.ContainsAny(raw, " \t") {
			continue
		}
		key := string(kind) + "|" + raw
		ev, ok := groups[key]
		if !ok {
			ev = &evidence{canonical: rec.Target, kind: kind, sessions: map[string]bool{}}
			groups[key] = ev
			order = append(order, key)
		}
		if ev.canonical != rec.Target {
			ev.conflicted = true
		}
		if !rec.Success {
			ev.failed = true
		}
		ev.sessions[rec.SessionID] = true
	}

	var out []domain.AliasPromotion
	for _, key := range order {
		ev := groups[key]
		raw := strings.SplitN(key, "|", 2)[1]
		if ev.conflicted || ev.failed || len(ev.sessions) < threshold {
			continue
		}
		if index != nil && index.IsKnownName(raw) {
			continue
		}
		out = append(out, domain.AliasPromotion{
			Alias:     raw,
			Canonical: ev.canonical,
			Kind:      ev.kind,
			Support:   len(ev.sessions),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Support != out[j].Support {
			return out[i].Support > out[j].Support
		}
		return out[i].Alias < out[j].Alias
	})
	return out
}
