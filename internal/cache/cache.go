// Package cache is a small Redis-backed TTL cache for the current content
// bundle. It is an optional read-path optimization: the read service works
// identically, just slower, without it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cosmicclassroom/contentd/internal/common"
	"github.com/cosmicclassroom/contentd/internal/entity"
)

const bundleKey = "contentd:bundle:current"

type Cache struct {
	cl  *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func New(cl *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	return &Cache{
		cl:  cl,
		ttl: ttl,
		log: log.With(slog.String("item", "BundleCache")),
	}
}

// Get returns the cached bundle or common.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context) (*entity.ContentBundle, error) {
	data, err := c.cl.Get(ctx, bundleKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrCacheMiss
		}

		return nil, fmt.Errorf("cannot get cached bundle: %w", err)
	}

	var bundle entity.ContentBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		// A corrupt entry behaves like a miss; the next Set replaces it.
		c.log.Warn("Dropping undecodable cache entry", slog.Any("error", err))

		return nil, common.ErrCacheMiss
	}

	return &bundle, nil
}

// Set stores the bundle with the configured TTL.
func (c *Cache) Set(ctx context.Context, bundle *entity.ContentBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("cannot encode bundle: %w", err)
	}

	if err := c.cl.Set(ctx, bundleKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cannot cache bundle: %w", err)
	}

	return nil
}

// Invalidate removes the cached bundle, forcing the next read to disk.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.cl.Del(ctx, bundleKey).Err(); err != nil {
		return fmt.Errorf("cannot invalidate bundle cache: %w", err)
	}

	return nil
}
