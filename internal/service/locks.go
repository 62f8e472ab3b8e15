package service

import "sync"

// roomLocks serializes event handling per room id. Every read-modify-write
// cycle for one room runs under that room's mutex, so a move, a rematch,
// and a disconnect arriving together apply in order against a consistent
// snapshot. Different rooms never block each other.
//
// Entries are reference-counted: a room's mutex exists only while someone
// holds or waits for it, so the table never grows with rooms that were
// created and abandoned.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{
		locks: make(map[string]*roomLock),
	}
}

// lock acquires the mutex for a room id and returns its unlock func.
func (that *roomLocks) lock(roomID string) func() {
	that.mu.Lock()
	entry, ok := that.locks[roomID]
	if !ok {
		entry = &roomLock{}
		that.locks[roomID] = entry
	}
	entry.refs++
	that.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		that.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(that.locks, roomID)
		}
		that.mu.Unlock()
	}
}
