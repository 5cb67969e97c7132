package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/futig/interview-flow/internal/entity"
	"golang.org/x/sync/semaphore"
)

// sessionLocks serializes transitions per session id. Entries are reference
// counted and dropped once nobody holds or waits for them.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the session is free, ctx is done or wait elapses.
func (l *sessionLocks) acquire(ctx context.Context, sessionID string, wait time.Duration) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[sessionID]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.entries[sessionID] = e
	}
	e.refs++
	l.mu.Unlock()

	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.unref(sessionID, e)
		return nil, fmt.Errorf("%w: session %s is busy: %v", entity.ErrConcurrentModification, sessionID, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.unref(sessionID, e)
		})
	}, nil
}

func (l *sessionLocks) unref(sessionID string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, sessionID)
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}
