// Package cache provides a Redis read-through cache in front of a
// catalog.Repository.
package cache

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
)

const (
	// DefaultTTL is used when New receives a non-positive TTL.
	DefaultTTL = 5 * time.Minute

	keyPrefix = "food:catalog:"
)

var _ catalog.Repository = (*Catalog)(nil)

// Catalog caches single-record catalog lookups in Redis. List and search
// queries go straight to the wrapped repository. Redis failures are logged
// and the lookup falls back to the wrapped repository.
type Catalog struct {
	next catalog.Repository
	rdb  redis.Cmdable
	ttl  time.Duration
}

// New wraps next with a Redis cache.
func New(next catalog.Repository, rdb redis.Cmdable, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Catalog{next: next, rdb: rdb, ttl: ttl}
}

func menuItemKey(id string) string   { return keyPrefix + "menu_item:" + id }
func restaurantKey(id string) string { return keyPrefix + "restaurant:" + id }

// GetMenuItem returns the cached item or loads and caches it.
func (c *Catalog) GetMenuItem(ctx context.Context, id string) (*catalog.MenuItem, error) {
	key := menuItemKey(id)
	if raw, ok := c.get(ctx, key); ok {
		item, err := decodeMenuItem(raw)
		if err == nil {
			return item, nil
		}
		zctx.From(ctx).Warn("Drop corrupt cache entry", zap.String("key", key), zap.Error(err))
	}

	item, err := c.next.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, encodeMenuItem(item))
	return item, nil
}

// GetRestaurant returns the cached restaurant or loads and caches it.
func (c *Catalog) GetRestaurant(ctx context.Context, id string) (*catalog.Restaurant, error) {
	key := restaurantKey(id)
	if raw, ok := c.get(ctx, key); ok {
		r, err := decodeRestaurant(raw)
		if err == nil {
			return r, nil
		}
		zctx.From(ctx).Warn("Drop corrupt cache entry", zap.String("key", key), zap.Error(err))
	}

	r, err := c.next.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, encodeRestaurant(r))
	return r, nil
}

// ListRestaurants is not cached.
func (c *Catalog) ListRestaurants(ctx context.Context) ([]catalog.Restaurant, error) {
	return c.next.ListRestaurants(ctx)
}

// SearchRestaurants is not cached.
func (c *Catalog) SearchRestaurants(ctx context.Context, f catalog.SearchFilter) ([]catalog.Restaurant, error) {
	return c.next.SearchRestaurants(ctx, f)
}

// ListMenu is not cached.
func (c *Catalog) ListMenu(ctx context.Context, restaurantID string) ([]catalog.MenuItem, error) {
	return c.next.ListMenu(ctx, restaurantID)
}

func (c *Catalog) get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return raw, true
	case errors.Is(err, redis.Nil):
		return nil, false
	default:
		zctx.From(ctx).Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
}

func (c *Catalog) set(ctx context.Context, key string, raw []byte) {
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		zctx.From(ctx).Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
