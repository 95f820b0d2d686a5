// Package events distributes project status-change notifications to
// interested listeners (the coordinator websocket feed).
package events

import (
	"context"
	"sync"

	"github.com/innovacall/review-portal/internal/models"
)

// Bus publishes and subscribes project status events
type Bus interface {
	// PublishStatus broadcasts a committed status change
	PublishStatus(ctx context.Context, ev models.StatusEvent) error

	// SubscribeStatus returns a channel of status events and a cancel
	// func. The channel is closed on cancel or bus shutdown.
	SubscribeStatus(ctx context.Context) (<-chan models.StatusEvent, func(), error)

	Close() error
}

// LocalBus is an in-process Bus for tests and single-instance deployments
type LocalBus struct {
	mu     sync.Mutex
	subs   map[int]chan models.StatusEvent
	nextID int
	closed bool
}

// NewLocalBus creates an in-process bus
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]chan models.StatusEvent)}
}

// PublishStatus fans the event out to all subscribers without blocking;
// a subscriber that cannot keep up drops events.
func (b *LocalBus) PublishStatus(ctx context.Context, ev models.StatusEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// SubscribeStatus registers a new subscriber
func (b *LocalBus) SubscribeStatus(ctx context.Context) (<-chan models.StatusEvent, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan models.StatusEvent, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}

	return ch, cancel, nil
}

// Close closes all subscriber channels
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
