package department

import (
	"sync"

	"orgstruct/internal/core/id"
)

// versionLocks is a keyed mutex: one writer per version inside this process.
// Entries are reference counted and dropped when the last holder unlocks.
type versionLocks struct {
	mu    sync.Mutex
	locks map[id.ID]*versionLock
}

type versionLock struct {
	mu   sync.Mutex
	refs int
}

func newVersionLocks() *versionLocks {
	return &versionLocks{locks: make(map[id.ID]*versionLock)}
}

// Lock blocks until versionID is free and returns the unlock func.
func (l *versionLocks) Lock(versionID id.ID) func() {
	l.mu.Lock()
	entry, ok := l.locks[versionID]
	if !ok {
		entry = &versionLock{}
		l.locks[versionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, versionID)
		}
		l.mu.Unlock()
	}
}
