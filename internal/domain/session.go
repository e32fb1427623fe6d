package domain

import (
	"sync"
	"time"
)

// Session is the short-lived conversational context for follow-ups. It is
// passed explicitly to the parser; nothing about it is process-wide.
type Session struct {
	ID string

	mu        sync.Mutex
	last      *Intent
	followUps int
	touched   time.Time
	maxTurns  int
	ttl       time.Duration
	now       func() time.Time
}

// NewSession creates an empty session context.
func NewSession(id string, maxTurns int, ttl time.Duration) *Session {
	if maxTurns <= 0 {
		maxTurns = DefaultSessionMaxTurns
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Session{ID: id, maxTurns: maxTurns, ttl: ttl, now: time.Now}
}

// SetClock replaces the time source.
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Last returns the live prior intent. Context older than the TTL or past
// the follow-up budget is discarded.
func (s *Session) Last() (Intent, bool) {
	if s == nil {
		return Intent{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Intent{}, false
	}
	if s.now().Sub(s.touched) > s.ttl || s.followUps >= s.maxTurns {
		s.clear()
		return Intent{}, false
	}
	return *s.last, true
}

// Remember stores the intent produced this turn. Fresh parses restart the
// follow-up budget.
func (s *Session) Remember(intent Intent, followUp bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if followUp {
		s.followUps++
	} else {
		s.followUps = 0
	}
	s.last = &intent
	s.touched = s.now()
}

// Reset drops all context.
func (s *Session) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Session) clear() {
	s.last = nil
	s.followUps = 0
	s.touched = time.Time{}
}
