package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/app"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "chicken:idemp:"

// IdempotencyStore remembers which order an Idempotency-Key produced.
// The lock key and the mapping key share one TTL.
type IdempotencyStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *goredis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func lockKey(key string) string { return keyPrefix + "lock:" + key }
func mapKey(key string) string  { return keyPrefix + "map:" + key }

func (s *IdempotencyStore) TryLock(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, lockKey(key), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency lock: %w", err)
	}
	return ok, nil
}

func (s *IdempotencyStore) Remember(ctx context.Context, key, orderID string) error {
	if err := s.rdb.Set(ctx, mapKey(key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Recall(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, mapKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency recall: %w", err)
	}
	return val, true, nil
}

// Forget releases the lock so a failed create can be retried with the same key.
func (s *IdempotencyStore) Forget(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, lockKey(key), mapKey(key)).Err(); err != nil {
		return fmt.Errorf("idempotency forget: %w", err)
	}
	return nil
}

var _ app.IdempotencyStore = (*IdempotencyStore)(nil)
