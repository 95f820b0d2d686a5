package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovacall/review-portal/internal/models"
)

func statusEvent(projectID string, from, to models.ProjectStatus) models.StatusEvent {
	return models.StatusEvent{
		ProjectID: projectID,
		From:      from,
		To:        to,
		At:        time.Now().UTC(),
	}
}

func TestLocalBusFanOut(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ctx := context.Background()

	first, cancelFirst, err := bus.SubscribeStatus(ctx)
	require.NoError(t, err)
	defer cancelFirst()

	second, cancelSecond, err := bus.SubscribeStatus(ctx)
	require.NoError(t, err)
	defer cancelSecond()

	ev := statusEvent("p1", models.StatusDraft, models.StatusSubmitted)
	require.NoError(t, bus.PublishStatus(ctx, ev))

	for _, ch := range []<-chan models.StatusEvent{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, ev.ProjectID, got.ProjectID)
			assert.Equal(t, ev.To, got.To)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestLocalBusCancelStopsDelivery(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ctx := context.Background()

	ch, cancel, err := bus.SubscribeStatus(ctx)
	require.NoError(t, err)

	cancel()

	// Channel is closed and publishing no longer panics or blocks
	_, ok := <-ch
	assert.False(t, ok)

	require.NoError(t, bus.PublishStatus(ctx, statusEvent("p1", models.StatusDraft, models.StatusSubmitted)))

	// Cancelling twice is safe
	cancel()
}

func TestLocalBusSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ctx := context.Background()

	ch, cancel, err := bus.SubscribeStatus(ctx)
	require.NoError(t, err)
	defer cancel()

	// Overflow the subscriber buffer; publishing must never block
	for i := 0; i < 100; i++ {
		require.NoError(t, bus.PublishStatus(ctx, statusEvent("p1", models.StatusReviewing, models.StatusReviewed)))
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			assert.Greater(t, received, 0)
			assert.LessOrEqual(t, received, 100)
			return
		}
	}
}

func TestLocalBusClose(t *testing.T) {
	bus := NewLocalBus()

	ch, _, err := bus.SubscribeStatus(context.Background())
	require.NoError(t, err)

	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)

	// Closing twice is safe
	require.NoError(t, bus.Close())
}
