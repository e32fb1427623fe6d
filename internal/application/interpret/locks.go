package interpret

import (
	"context"
	"sync"
)

// sessionLocks serialises destructive operations per session. Each lock is
// a one-slot channel so waiting respects context cancellation. A slot is
// dropped once nobody holds or waits for it.
type sessionLocks struct {
	mu    sync.Mutex
	slots map[string]*sessionSlot
}

type sessionSlot struct {
	ch   chan struct{}
	refs int // holder plus waiters
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{slots: map[string]*sessionSlot{}}
}

func (l *sessionLocks) acquire(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[sessionID]
	if !ok {
		slot = &sessionSlot{ch: make(chan struct{}, 1)}
		l.slots[sessionID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.unref(sessionID, slot)
			})
		}, nil
	case <-ctx.Done():
		l.unref(sessionID, slot)
		return nil, ctx.Err()
	}
}

func (l *sessionLocks) unref(sessionID string, slot *sessionSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 && l.slots[sessionID] == slot {
		delete(l.slots, sessionID)
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
