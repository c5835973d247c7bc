// internal/assistant/locks.go
package assistant

import "sync"

// turnLocks serializes in-flight turns per session ID. Entries are
// refcounted: a lock is dropped from the map only when no goroutine holds
// or waits on it, so abandoned sessions do not leak entries and a waiter
// can never end up on a different mutex than the holder.
type turnLocks struct {
	mu      sync.Mutex
	entries map[string]*turnLock
}

type turnLock struct {
	mu   sync.Mutex
	refs int
}

func newTurnLocks() *turnLocks {
	return &turnLocks{entries: make(map[string]*turnLock)}
}

func (l *turnLocks) acquire(id string) *turnLock {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &turnLock{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return entry
}

func (l *turnLocks) release(id string, entry *turnLock) {
	entry.mu.Unlock()

	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, id)
	}
	l.mu.Unlock()
}

func (l *turnLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
