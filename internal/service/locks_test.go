package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomLocks_Serializes(t *testing.T) {
	locks := newRoomLocks()

	t.Run("same room runs one holder at a time", func(t *testing.T) {
		const workers = 8

		var counter int
		var wg sync.WaitGroup
		wg.Add(workers)

		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()

				unlock := locks.lock("r1")
				defer unlock()

				counter++
			}()
		}

		wg.Wait()
		assert.Equal(t, workers, counter)
	})

	t.Run("different rooms never block each other", func(t *testing.T) {
		unlock := locks.lock("r1")
		defer unlock()

		done := make(chan struct{})
		go func() {
			other := locks.lock("r2")
			other()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on a different room blocked")
		}
	})
}

func TestRoomLocks_ReleasesEntries(t *testing.T) {
	locks := newRoomLocks()

	// Given: a burst of activity across many room ids
	for _, roomID := range []string{"r1", "r2", "r3"} {
		unlock := locks.lock(roomID)
		unlock()
	}

	// Then: no entries linger once nobody holds or waits
	locks.mu.Lock()
	remaining := len(locks.locks)
	locks.mu.Unlock()
	assert.Zero(t, remaining)

	// Given: a holder and a waiter on the same room
	unlock := locks.lock("r1")

	released := make(chan struct{})
	go func() {
		inner := locks.lock("r1")
		inner()
		close(released)
	}()

	// the waiter keeps the entry alive until it gets its turn
	require.Eventually(t, func() bool {
		locks.mu.Lock()
		defer locks.mu.Unlock()
		entry, ok := locks.locks["r1"]
		return ok && entry.refs == 2
	}, time.Second, 2*time.Millisecond)

	unlock()
	<-released

	locks.mu.Lock()
	_, ok := locks.locks["r1"]
	locks.mu.Unlock()
	assert.False(t, ok)
}
