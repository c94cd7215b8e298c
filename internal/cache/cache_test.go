package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicclassroom/contentd/internal/common"
	"github.com/cosmicclassroom/contentd/internal/entity"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	return New(cl, ttl, log), mr
}

func TestGetMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	bundle := &entity.ContentBundle{
		Source: "NASA+ Daily Scraper",
		Shows:  []entity.ContentItem{{ID: "cosmic-dawn", Title: "Cosmic Dawn"}},
	}
	require.NoError(t, c.Set(ctx, bundle))

	got, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NASA+ Daily Scraper", got.Source)
	require.Len(t, got.Shows, 1)
	assert.Equal(t, "cosmic-dawn", got.Shows[0].ID)
}

func TestSetAppliesTTL(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &entity.ContentBundle{Source: "x"}))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

// A corrupt entry behaves like a miss instead of poisoning the read path.
func TestGetCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)

	require.NoError(t, mr.Set(bundleKey, "{not json"))

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &entity.ContentBundle{Source: "x"}))
	require.NoError(t, c.Invalidate(ctx))

	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}
