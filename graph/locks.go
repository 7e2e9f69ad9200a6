package graph

import (
	"context"
	"sync"
)

// threadLocks serializes runs per thread ID. Entries are reference counted and
// dropped when the last holder or waiter leaves.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	sem  chan struct{}
	refs int
}

func newThreadLocks() *threadLocks {
	return &threadLocks{locks: make(map[string]*threadLock)}
}

// acquire blocks until the thread is free or ctx is done.
func (t *threadLocks) acquire(ctx context.Context, threadID string) (func(), error) {
	t.mu.Lock()
	l, ok := t.locks[threadID]
	if !ok {
		l = &threadLock{sem: make(chan struct{}, 1)}
		t.locks[threadID] = l
	}
	l.refs++
	t.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		t.unref(threadID, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			t.unref(threadID, l)
		})
	}, nil
}

func (t *threadLocks) unref(threadID string, l *threadLock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, threadID)
	}
}

func (t *threadLocks) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
