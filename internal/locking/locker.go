// Package locking serializes writers per project. Cross-project operations
// never contend with each other.
package locking

import (
	"context"
	"errors"
	"sync"
)

// ErrLockNotAcquired is returned when the per-project lock could not be
// taken before the context expired.
var ErrLockNotAcquired = errors.New("project lock not acquired")

// Locker provides per-project mutual exclusion
type Locker interface {
	// Acquire blocks until the project lock is held or ctx is done.
	// The returned func releases the lock.
	Acquire(ctx context.Context, projectID string) (func(), error)

	Close() error
}

// LocalLocker implements Locker with in-process mutexes. Suitable for
// single-instance deployments and tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) forProject(projectID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[projectID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[projectID] = m
	}
	return m
}

// Acquire takes the project mutex, honoring context cancellation
func (l *LocalLocker) Acquire(ctx context.Context, projectID string) (func(), error) {
	m := l.forProject(projectID)

	acquired := make(chan struct{})
	go func() {
		m.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return m.Unlock, nil
	case <-ctx.Done():
		// The goroutine will still take the mutex; release it when it does
		go func() {
			<-acquired
			m.Unlock()
		}()
		return nil, ErrLockNotAcquired
	}
}

// Close is a no-op for the local locker
func (l *LocalLocker) Close() error { return nil }
