package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/logging"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// Backend is the byte store behind CatalogCache.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Del(ctx context.Context, key string) error
}

// CatalogCache is a read-through cache in front of the catalog service.
// Misses and backend errors fall through to the catalog; lookup failures
// are never cached.
type CatalogCache struct {
	next    usecase.CatalogLookup
	backend Backend
}

func NewCatalogCache(next usecase.CatalogLookup, backend Backend) *CatalogCache {
	return &CatalogCache{next: next, backend: backend}
}

func productKey(id string) string   { return "catalog:product:" + id }
func packageKey(slug string) string { return "catalog:package:" + slug }

func (c *CatalogCache) Product(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	if c.lookup(ctx, productKey(id), &p) {
		return p, nil
	}
	p, err := c.next.Product(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	c.store(ctx, productKey(id), p)
	return p, nil
}

func (c *CatalogCache) Package(ctx context.Context, slug string) (domain.Package, error) {
	var p domain.Package
	if c.lookup(ctx, packageKey(slug), &p) {
		return p, nil
	}
	p, err := c.next.Package(ctx, slug)
	if err != nil {
		return domain.Package{}, err
	}
	c.store(ctx, packageKey(slug), p)
	return p, nil
}

func (c *CatalogCache) Evict(ctx context.Context, productID string) error {
	return c.backend.Del(ctx, productKey(productID))
}

func (c *CatalogCache) EvictPackage(ctx context.Context, slug string) error {
	return c.backend.Del(ctx, packageKey(slug))
}

func (c *CatalogCache) lookup(ctx context.Context, key string, v any) bool {
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		logging.FromCtx(ctx).Warn("catalog cache read failed", "key", key, "err", err)
		return false
	}
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (c *CatalogCache) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.backend.Set(ctx, key, raw); err != nil {
		logging.FromCtx(ctx).Warn("catalog cache write failed", "key", key, "err", err)
	}
}

var (
	_ usecase.CatalogLookup = (*CatalogCache)(nil)
	_ usecase.ProductCache  = (*CatalogCache)(nil)
)

type RedisBackend struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisBackend(rdb *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{rdb: rdb, ttl: ttl}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, val []byte) error {
	return r.rdb.Set(ctx, key, val, r.ttl).Err()
}

func (r *RedisBackend) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// LRUBackend is the in-process fallback used when Redis is not configured.
type LRUBackend struct {
	lru *expirable.LRU[string, []byte]
}

func NewLRUBackend(size int, ttl time.Duration) *LRUBackend {
	return &LRUBackend{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (l *LRUBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.lru.Get(key)
	return v, ok, nil
}

func (l *LRUBackend) Set(_ context.Context, key string, val []byte) error {
	l.lru.Add(key, val)
	return nil
}

func (l *LRUBackend) Del(_ context.Context, key string) error {
	l.lru.Remove(key)
	return nil
}

var (
	_ Backend = (*RedisBackend)(nil)
	_ Backend = (*LRUBackend)(nil)
)
