package feedback

import "github.com/doeshing/nixsay/internal/domain"

// Summarize aggregates records for the stats view.
func Summarize(records []domain.FeedbackRecord) domain.FeedbackStats {
	stats := domain.FeedbackStats{
		ByOperation: map[string]int{},
		ByTier:      map[domain.RiskTier]int{},
	}
	sessions := map[string]bool{}
	for _, rec := range records {
		stats.Total++
		if rec.Success {
			stats.Successful++
		}
		stats.ByOperation[rec.Operation]++
		stats.ByTier[rec.Tier]++
		sessions[rec.SessionID] = true
	}
	stats.Sessions = len(sessions)
	return stats
}
