package locking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when it still holds our token,
// so an expired lock re-acquired by another writer is never released by us.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisLocker implements Locker with Redis SET NX PX locks, giving
// mutual exclusion across service instances.
type RedisLocker struct {
	client  *redis.Client
	ttl     time.Duration
	retryIn time.Duration
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(address, password string, db int, ttl time.Duration) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		retryIn: 50 * time.Millisecond,
	}, nil
}

func lockKey(projectID string) string {
	return fmt.Sprintf("lock:project:%s", projectID)
}

// Acquire polls SET NX until the lock is held or ctx is done
func (l *RedisLocker) Acquire(ctx context.Context, projectID string) (func(), error) {
	key := lockKey(projectID)
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire project lock: %w", err)
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
					slog.Warn("failed to release project lock", "project_id", projectID, "error", err)
				}
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: project %s", ErrLockNotAcquired, projectID)
		case <-time.After(l.retryIn):
		}
	}
}

// Close closes the Redis connection
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
