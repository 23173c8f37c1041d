package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAttemptStore counts login attempts in Redis so the limit holds across
// server processes. Implements the auth service's AttemptStore.
type RedisAttemptStore struct {
	client *redis.Client
	prefix string
}

// NewRedisAttemptStore constructs a Redis-backed attempt store.
func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, prefix: "login_attempts:"}
}

// Increment bumps the counter for key, starting the window on first use.
func (s *RedisAttemptStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	redisKey := s.prefix + key
	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", redisKey, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", redisKey, err)
		}
	}
	return int(count), nil
}

// Reset drops the counter for key.
func (s *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("del %s%s: %w", s.prefix, key, err)
	}
	return nil
}
