package knowledge

import (
	"sort"
	"strings"

	"github.com/doeshing/nixsay/internal/domain"
)

func (s *Store) putProblemLocked(p domain.Problem) {
	key := normalizeName(p.Symptom)
	if key == "" {
		return
	}
	for i := range s.problems {
		if normalizeName(s.problems[i].Symptom) == key {
			s.problems[i] = p
			return
		}
	}
	s.problems = append(s.problems, p)
}

// Troubleshoot returns the known problems matching text. A problem matches
// when its symptom appears in text, so pasted error output works, or when
// text appears in its symptom or solution.
func (s *Store) Troubleshoot(text string) []domain.Problem {
	query := normalizeName(text)
	if query == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Problem
	for _, p := range s.problems {
		symptom := normalizeName(p.Symptom)
		if strings.Contains(query, symptom) ||
			strings.Contains(symptom, query) ||
			strings.Contains(strings.ToLower(p.Solution), query) {
			out = append(out, p)
		}
	}
	return out
}

// Practice looks up the recommended practice for topic. Spaces, dashes and
// underscores are interchangeable.
func (s *Store) Practice(topic string) (domain.Practice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.practices[topicKey(topic)]
	return p, ok
}

// Practices lists every practice sorted by topic.
func (s *Store) Practices() []domain.Practice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Practice, 0, len(s.practices))
	for _, p := range s.practices {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

func topicKey(topic string) string {
	return normalizeName(strings.NewReplacer("_", " ", "-", " ").Replace(topic))
}
