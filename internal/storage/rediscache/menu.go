// Package rediscache decorates repositories with Redis read-through caching.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zorpido/pos/internal/domain/menu"
)

const (
	menuListKey    = "menu:all"
	menuItemKeyF   = "menu:item:%d"
	menuSKUKeyF    = "menu:sku:%s"
	defaultMenuTTL = 5 * time.Minute
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository wraps a menu.Repository with a Redis read-through cache.
// Writes go straight to the underlying repository and invalidate the
// affected keys. Cache failures degrade to the underlying store.
type MenuRepository struct {
	next   menu.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewMenuRepository returns a caching decorator over next. A zero ttl uses
// the default of five minutes.
func NewMenuRepository(next menu.Repository, client *redis.Client, ttl time.Duration) *MenuRepository {
	if ttl <= 0 {
		ttl = defaultMenuTTL
	}
	return &MenuRepository{next: next, client: client, ttl: ttl}
}

// List returns all menu items, serving from cache when warm.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	var items []menu.Item
	if r.get(ctx, menuListKey, &items) {
		return items, nil
	}

	items, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, menuListKey, items)
	return items, nil
}

// GetByID returns a single menu item, serving from cache when warm.
func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*menu.Item, error) {
	key := fmt.Sprintf(menuItemKeyF, id)

	var item menu.Item
	if r.get(ctx, key, &item) {
		return &item, nil
	}

	it, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, it)
	return it, nil
}

// GetBySKU returns a single menu item by SKU, serving from cache when warm.
func (r *MenuRepository) GetBySKU(ctx context.Context, sku string) (*menu.Item, error) {
	key := fmt.Sprintf(menuSKUKeyF, sku)

	var item menu.Item
	if r.get(ctx, key, &item) {
		return &item, nil
	}

	it, err := r.next.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, it)
	return it, nil
}

// Update writes through to the underlying repository and drops the item's
// cache entries along with the list key.
func (r *MenuRepository) Update(ctx context.Context, item *menu.Item) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}

	keys := []string{
		menuListKey,
		fmt.Sprintf(menuItemKeyF, item.ID),
		fmt.Sprintf(menuSKUKeyF, item.SKU),
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		zctx.From(ctx).Warn("menu cache invalidation failed",
			zap.Int64("item_id", item.ID), zap.Error(err))
	}
	return nil
}

func (r *MenuRepository) get(ctx context.Context, key string, dest any) bool {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zctx.From(ctx).Warn("menu cache read failed",
				zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		zctx.From(ctx).Warn("menu cache entry corrupt",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *MenuRepository) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		zctx.From(ctx).Warn("menu cache marshal failed",
			zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		zctx.From(ctx).Warn("menu cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}
