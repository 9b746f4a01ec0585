package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// eventLocks hands out one lock per event id. Entries are reference counted
// and removed once no goroutine holds or waits on them.
type eventLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*eventLock
}

// eventLock is a one-slot semaphore so waiters can give up when their context ends.
type eventLock struct {
	sem  chan struct{}
	refs int
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[uuid.UUID]*eventLock)}
}

// lock blocks until the caller holds the event's lock or ctx is done, and
// returns the release func.
func (l *eventLocks) lock(ctx context.Context, id uuid.UUID) (unlock func(), err error) {
	l.mu.Lock()
	el, ok := l.locks[id]
	if !ok {
		el = &eventLock{sem: make(chan struct{}, 1)}
		l.locks[id] = el
	}
	el.refs++
	l.mu.Unlock()

	select {
	case el.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(id, el)
		return nil, ctx.Err()
	}
	return func() {
		<-el.sem
		l.release(id, el)
	}, nil
}

func (l *eventLocks) release(id uuid.UUID, el *eventLock) {
	l.mu.Lock()
	el.refs--
	if el.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()
}

func (l *eventLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
