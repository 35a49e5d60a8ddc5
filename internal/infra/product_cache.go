package infra

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	productKeyPrefix  = "product:"
	sharedLoadTimeout = 10 * time.Second
)

// cacheStore is the part of the go-redis API the product cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ProductCache is a cache-aside layer for single products keyed by id.
// Redis errors are logged and swallowed; the loader is always the source of truth.
type ProductCache struct {
	store cacheStore
	ttl   time.Duration
	cb    *CircuitBreaker
	group singleflight.Group
}

func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	return newProductCache(rdb, ttl, NewCircuitBreaker(DefaultCacheBreakerConfig()))
}

func newProductCache(store cacheStore, ttl time.Duration, cb *CircuitBreaker) *ProductCache {
	return &ProductCache{store: store, ttl: ttl, cb: cb}
}

func productKey(id int64) string { return productKeyPrefix + strconv.FormatInt(id, 10) }

// Get returns the cached product or calls load on a miss. Concurrent misses
// for the same id share one load. The shared load is detached from the
// caller's cancellation so one aborted request cannot fail the others waiting
// on it; each caller still returns as soon as its own ctx is done.
func (c *ProductCache) Get(ctx context.Context, id int64, load func(ctx context.Context) (*dto.ProductResponse, error)) (*dto.ProductResponse, error) {
	key := productKey(id)
	if resp, ok := c.lookup(ctx, key); ok {
		return resp, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		resp, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.fill(loadCtx, key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp := *res.Val.(*dto.ProductResponse)
		return &resp, nil
	}
}

// Invalidate drops the cached copy after a mutation.
func (c *ProductCache) Invalidate(ctx context.Context, id int64) {
	key := productKey(id)
	err := c.cb.Execute(func() error {
		return c.store.Del(ctx, key).Err()
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("product cache invalidation failed")
	}
}

func (c *ProductCache) lookup(ctx context.Context, key string) (*dto.ProductResponse, bool) {
	var data []byte
	err := c.cb.Execute(func() error {
		b, err := c.store.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		data = b
		return err
	})
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("product cache read skipped")
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var resp dto.ProductResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding corrupt product cache entry")
		return nil, false
	}
	return &resp, true
}

func (c *ProductCache) fill(ctx context.Context, key string, resp *dto.ProductResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	err = c.cb.Execute(func() error {
		return c.store.Set(ctx, key, b, c.ttl).Err()
	})
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("product cache write skipped")
	}
}
