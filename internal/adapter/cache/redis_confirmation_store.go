package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// RedisConfirmationStore writes the confirmation record under the
// session's lastOrder key.
type RedisConfirmationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisConfirmationStore(rdb *redis.Client, ttl time.Duration) *RedisConfirmationStore {
	return &RedisConfirmationStore{rdb: rdb, ttl: ttl}
}

func confirmationKey(sessionID string) string {
	return "checkout:" + sessionID + ":" + domain.ConfirmationKey
}

func (r *RedisConfirmationStore) Save(ctx context.Context, sessionID string, c domain.Confirmation) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode confirmation")
	}
	return errors.Wrap(r.rdb.Set(ctx, confirmationKey(sessionID), raw, r.ttl).Err(), "save confirmation")
}

func (r *RedisConfirmationStore) Load(ctx context.Context, sessionID string) (domain.Confirmation, error) {
	raw, err := r.rdb.Get(ctx, confirmationKey(sessionID)).Bytes()
	if err == redis.Nil {
		return domain.Confirmation{}, usecase.ErrConfirmationNotFound
	}
	if err != nil {
		return domain.Confirmation{}, errors.Wrap(err, "load confirmation")
	}
	var c domain.Confirmation
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Confirmation{}, errors.Wrap(err, "decode confirmation")
	}
	return c, nil
}

var _ usecase.ConfirmationStore = (*RedisConfirmationStore)(nil)
