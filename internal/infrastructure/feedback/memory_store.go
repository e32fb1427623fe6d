package feedback

import (
	"context"
	"strings"
	"sync"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// MemoryStore keeps the most recent records in a bounded ring. It backs the
// recorder when the database is unavailable.
type MemoryStore struct {
	mu      sync.Mutex
	records []domain.FeedbackRecord
	next    int
	full    bool
}

// NewMemoryStore holds at most limit records.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = domain.DefaultFeedbackMemoryLimit
	}
	return &MemoryStore{records: make([]domain.FeedbackRecord, limit)}
}

// Append overwrites the oldest record once the ring is full.
func (m *MemoryStore) Append(_ context.Context, record domain.FeedbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[m.next] = record
	m.next = (m.next + 1) % len(m.records)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Records returns newest first.
func (m *MemoryStore) Records(_ context.Context, limit int, search string) ([]domain.FeedbackRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.next
	if m.full {
		n = len(m.records)
	}
	var out []domain.FeedbackRecord
	for i := 0; i < n; i++ {
		idx := (m.next - 1 - i + len(m.records)) % len(m.records)
		rec := m.records[idx]
		if search != "" && !matches(rec, search) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matches(rec domain.FeedbackRecord, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(rec.Input), s) ||
		strings.Contains(strings.ToLower(rec.Command), s) ||
		strings.Contains(strings.ToLower(rec.Target), s)
}

var _ ports.FeedbackRepository = (*MemoryStore)(nil)
