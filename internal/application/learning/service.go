// Package learning runs the batch alias-promotion step. It is never called
// inline with a user request.
package learning

import (
	"context"
	"errors"
	"fmt"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// RecordSource reads the feedback log.
type RecordSource interface {
	Records(ctx context.Context, limit int, search string) ([]domain.FeedbackRecord, error)
}

// Service mines feedback and promotes corroborated aliases.
type Service struct {
	Feedback  RecordSource
	Knowledge ports.KnowledgeBase
	Aliases   ports.AliasRepository
	Logger    ports.Logger
	Threshold int
}

// Report is the outcome of one promotion pass.
type Report struct {
	Examined  int
	Proposed  []domain.AliasPromotion
	Promoted  []domain.AliasPromotion
	Conflicts []string
}

// Promote proposes aliases and, when apply is set, registers them in the
// knowledge store and persists them. Applying without an alias repository
// fails with KindStorageUnavailable and changes nothing.
func (s *Service) Promote(ctx context.Context, apply bool) (Report, error) {
	if s.Feedback == nil || s.Knowledge == nil {
		return Report{}, errors.New("learning.Service dependencies not satisfied")
	}
	records, err := s.Feedback.Records(ctx, 0, "")
	if err != nil {
		return Report{}, domain.NewError(domain.KindStorageUnavailable, "feedback log", "could not read feedback").Wrap(err)
	}
	report := Report{Examined: len(records)}
	report.Proposed = SuggestAliasPromotions(records, s.Knowledge, s.Threshold)
	if !apply {
		return report, nil
	}
	if s.Aliases == nil && len(report.Proposed) > 0 {
		// An alias that only lives in memory would vanish on the next run.
		return report, domain.NewError(domain.KindStorageUnavailable, "learned aliases",
			"the alias database is unavailable, so nothing was promoted",
			`Run "nixsay doctor" to see why feedback storage is degraded.`)
	}

	for _, p := range report.Proposed {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.Knowledge.RegisterAlias(p.Alias, p.Canonical, p.Kind, domain.LayerLearned); err != nil {
			report.Conflicts = append(report.Conflicts, fmt.Sprintf("%s -> %s: %v", p.Alias, p.Canonical, err))
			continue
		}
		alias := domain.LearnedAlias{
			Alias:     p.Alias,
			Canonical: p.Canonical,
			Kind:      p.Kind,
			Support:   p.Support,
			Version:   s.Knowledge.Version(),
		}
		if err := s.Aliases.SaveAlias(ctx, alias); err != nil {
			return report, domain.NewError(domain.KindStorageUnavailable, "learned aliases", "could not save alias").Wrap(err)
		}
		report.Promoted = append(report.Promoted, p)
		if s.Logger != nil {
			s.Logger.Info("alias promoted", map[string]interface{}{
				"alias":     p.Alias,
				"canonical": p.Canonical,
				"support":   p.Support,
			})
		}
	}
	return report, nil
}
