package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

const memoryEntries = 10_000

// MemoryIdempotencyStore mirrors RedisIdempotencyStore for single-node runs.
type MemoryIdempotencyStore struct {
	mu    sync.Mutex
	locks *expirable.LRU[string, struct{}]
	vals  *expirable.LRU[string, string]
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		locks: expirable.NewLRU[string, struct{}](memoryEntries, nil, ttl),
		vals:  expirable.NewLRU[string, string](memoryEntries, nil, ttl),
	}
}

func (m *MemoryIdempotencyStore) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := lockKey(scope, key)
	if m.locks.Contains(k) {
		return false, nil
	}
	m.locks.Add(k, struct{}{})
	return true, nil
}

func (m *MemoryIdempotencyStore) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks.Remove(lockKey(scope, key))
	return nil
}

func (m *MemoryIdempotencyStore) Remember(_ context.Context, scope, key, value string) error {
	m.vals.Add(mapKey(scope, key), value)
	return nil
}

func (m *MemoryIdempotencyStore) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := m.vals.Get(mapKey(scope, key))
	return v, ok, nil
}

type MemoryConfirmationStore struct {
	lru *expirable.LRU[string, domain.Confirmation]
}

func NewMemoryConfirmationStore(ttl time.Duration) *MemoryConfirmationStore {
	return &MemoryConfirmationStore{lru: expirable.NewLRU[string, domain.Confirmation](memoryEntries, nil, ttl)}
}

func (m *MemoryConfirmationStore) Save(_ context.Context, sessionID string, c domain.Confirmation) error {
	m.lru.Add(confirmationKey(sessionID), c)
	return nil
}

func (m *MemoryConfirmationStore) Load(_ context.Context, sessionID string) (domain.Confirmation, error) {
	c, ok := m.lru.Get(confirmationKey(sessionID))
	if !ok {
		return domain.Confirmation{}, usecase.ErrConfirmationNotFound
	}
	return c, nil
}

var (
	_ usecase.IdempotencyStore  = (*MemoryIdempotencyStore)(nil)
	_ usecase.ConfirmationStore = (*MemoryConfirmationStore)(nil)
)
