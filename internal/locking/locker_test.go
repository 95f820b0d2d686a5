package locking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerMutualExclusion(t *testing.T) {
	locker := NewLocalLocker()
	defer locker.Close()

	var inCritical int
	var maxInCritical int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := locker.Acquire(context.Background(), "project-a")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical, "two writers entered the critical section")
}

func TestLocalLockerIndependentProjects(t *testing.T) {
	locker := NewLocalLocker()
	defer locker.Close()

	releaseA, err := locker.Acquire(context.Background(), "project-a")
	require.NoError(t, err)
	defer releaseA()

	// A held lock on another project must not block this one
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	releaseB, err := locker.Acquire(ctx, "project-b")
	require.NoError(t, err)
	releaseB()
}

func TestLocalLockerContextTimeout(t *testing.T) {
	locker := NewLocalLocker()
	defer locker.Close()

	release, err := locker.Acquire(context.Background(), "project-a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(ctx, "project-a")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// After release the lock becomes available again
	release()

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()

	release2, err := locker.Acquire(ctx2, "project-a")
	require.NoError(t, err)
	release2()
}
