package analyzer

import (
	"sync"

	"narcissus/internal/conflate"
)

// subscriberList is the guarded list of outbound Senders for one
// analyzer's conflation channel. It is mutated only by the owning
// worker (prune) and by the Exchange (append on subscribe); the mutex
// is held only around that bookkeeping, never across a frame read or
// the analyzer computation itself.
type subscriberList[T any] struct {
	mu   sync.Mutex
	subs []*conflate.Sender[T]
}

func (l *subscriberList[T]) add(s *conflate.Sender[T]) {
	l.mu.Lock()
	l.subs = append(l.subs, s)
	l.mu.Unlock()
}

// snapshotEmpty reports whether the list is currently empty, without
// taking any further action.
func (l *subscriberList[T]) snapshotEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs) == 0
}

// publishAndPrune sends value to every subscriber, then removes any
// whose reported receiver count was 0 — i.e. whose last Receiver has
// already been dropped by its Session.
func (l *subscriberList[T]) publishAndPrune(value T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	live := l.subs[:0]
	for _, s := range l.subs {
		if n := s.Send(value); n > 0 {
			live = append(live, s)
		}
	}
	l.subs = live
}
