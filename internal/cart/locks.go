package cart

import "sync"

// UserLocks serializes mutations per user. A user has exactly one cart, so a
// double-submit from the same session must not interleave; cross-user
// operations only contend through product stock, which the ledger guards.
type UserLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func NewUserLocks() *UserLocks {
	return &UserLocks{m: make(map[string]*sync.Mutex)}
}

// Lock acquires the user's mutex and returns the unlock func.
func (l *UserLocks) Lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.m[userID]
	if !ok {
		m = &sync.Mutex{}
		l.m[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
