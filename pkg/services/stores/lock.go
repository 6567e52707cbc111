package stores

import (
	"sync"
)

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// SessionLocks serializes turns of one session. An entry lives only while
// some caller holds or waits for it.
type SessionLocks struct {
	mu sync.Mutex
	m  map[string]*sessionLock
}

// NewSessionLocks ...
func NewSessionLocks() *SessionLocks {
	return &SessionLocks{m: make(map[string]*sessionLock)}
}

// Lock blocks until id is free, the returned func unlocks it.
func (l *SessionLocks) Lock(id string) func() {
	l.mu.Lock()
	sl, ok := l.m[id]
	if !ok {
		sl = new(sessionLock)
		l.m[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			sl.mu.Unlock()
			l.mu.Lock()
			sl.refs--
			if sl.refs == 0 {
				delete(l.m, id)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of sessions locked or waited on.
func (l *SessionLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
