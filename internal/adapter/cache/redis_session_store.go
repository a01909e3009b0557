package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/aq2208/gorder-checkout/internal/checkout"
	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/session"
)

// RedisSessionStore keeps checkout sessions as JSON with a sliding TTL.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return "checkout:session:" + id }

func (r *RedisSessionStore) Load(ctx context.Context, id string) (*checkout.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load session %s", id)
	}
	var s checkout.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "decode session %s", id)
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *checkout.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	return errors.Wrapf(r.rdb.Set(ctx, sessionKey(s.ID), raw, r.ttl).Err(), "save session %s", s.ID)
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return errors.Wrapf(r.rdb.Del(ctx, sessionKey(id)).Err(), "delete session %s", id)
}

var _ session.Store = (*RedisSessionStore)(nil)
