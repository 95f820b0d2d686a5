package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/innovacall/review-portal/internal/models"
)

// statusChannel is the Redis pub/sub channel carrying status events
const statusChannel = "project-status"

// RedisBus implements Bus on Redis pub/sub, so every service instance
// sees status changes committed by any other instance.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus creates a Redis-backed event bus
func NewRedisBus(address, password string, db int) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBus{client: client}, nil
}

// PublishStatus publishes the event as JSON on the status channel
func (b *RedisBus) PublishStatus(ctx context.Context, ev models.StatusEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	if err := b.client.Publish(ctx, statusChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}

	return nil
}

// SubscribeStatus subscribes to the status channel and decodes events
// until cancel is called or ctx is done.
func (b *RedisBus) SubscribeStatus(ctx context.Context) (<-chan models.StatusEvent, func(), error) {
	sub := b.client.Subscribe(ctx, statusChannel)

	// Force the subscription to establish before returning
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to status channel: %w", err)
	}

	out := make(chan models.StatusEvent, 16)
	subCtx, cancelCtx := context.WithCancel(ctx)

	go func() {
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev models.StatusEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("invalid status event payload", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	cancel := func() {
		cancelCtx()
		if err := sub.Close(); err != nil {
			slog.Debug("failed to close status subscription", "error", err)
		}
	}

	return out, cancel, nil
}

// Ping checks Redis connectivity
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (b *RedisBus) Close() error {
	return b.client.Close()
}
