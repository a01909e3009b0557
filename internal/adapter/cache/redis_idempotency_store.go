package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/aq2208/gorder-checkout/internal/usecase"
)

type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl}
}

func lockKey(scope, key string) string { return "idemp:" + scope + ":" + key }
func mapKey(scope, key string) string  { return "idemp:map:" + scope + ":" + key }

func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, lockKey(scope, key), "1", s.ttl).Result()
	return ok, errors.Wrap(err, "idempotency lock")
}

// Release drops the lock after a failed attempt so the same key can retry.
func (s *RedisIdempotencyStore) Release(ctx context.Context, scope, key string) error {
	return errors.Wrap(s.rdb.Del(ctx, lockKey(scope, key)).Err(), "idempotency release")
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, scope, key, value string) error {
	return errors.Wrap(s.rdb.Set(ctx, mapKey(scope, key), value, s.ttl).Err(), "idempotency remember")
}

func (s *RedisIdempotencyStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, mapKey(scope, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "idempotency recall")
	}
	return val, true, nil
}

var _ usecase.IdempotencyStore = (*RedisIdempotencyStore)(nil)
