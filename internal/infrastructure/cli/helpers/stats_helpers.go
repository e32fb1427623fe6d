package helpers

import (
	"sort"

	"github.com/doeshing/nixsay/internal/domain"
)

// CountStatistic represents how often a key occurred.
type CountStatistic struct {
	Key   string
	Count int
}

// TopCounts returns the top N most frequent keys.
// If limit is 0 or negative, returns all keys
func TopCounts(frequency map[string]int, limit int) []CountStatistic {
	stats := make([]CountStatistic, 0, len(frequency))
	for key, count := range frequency {
		stats = append(stats, CountStatistic{Key: key, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Key < stats[j].Key
		}
		return stats[i].Count > stats[j].Count
	})
	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, executedCount int) float64 {
	if executedCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(executedCount) * 100.0
}

var undoHints = map[domain.Action]string{
	domain.ActionInstall:  `Undo an install with "remove <package>".`,
	domain.ActionRemove:   `A removed package stays in the store until garbage collection; "install <package>" brings it back instantly.`,
	domain.ActionUpdate:   `Return to the generation before an update with "roll back".`,
	domain.ActionRebuild:  `Every rebuild creates a generation; "list generations" then "switch to generation N".`,
	domain.ActionRollback: `Rolled back by mistake? "list generations" shows where you were.`,
	domain.ActionClean:    "Garbage collection cannot be undone; generations it deleted are gone.",
}

// DeriveUndoHints returns one hint per action family that succeeded, sorted.
func DeriveUndoHints(records []domain.FeedbackRecord) []string {
	seen := map[domain.Action]bool{}
	for _, rec := range records {
		if rec.Success {
			seen[rec.Action] = true
		}
	}
	hints := make([]string, 0, len(seen))
	for action := range seen {
		if hint, ok := undoHints[action]; ok {
			hints = append(hints, hint)
		}
	}
	sort.Strings(hints)
	return hints
}
