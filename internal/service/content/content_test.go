package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicclassroom/contentd/internal/common"
	"github.com/cosmicclassroom/contentd/internal/entity"
	"github.com/cosmicclassroom/contentd/internal/fallback"
	"github.com/cosmicclassroom/contentd/internal/snapshot"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestService(t *testing.T, cache BundleCache) (*Service, *snapshot.Store, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	store, err := snapshot.NewStoreWithFS(fs, "/data", log)
	require.NoError(t, err)

	srv := New(store, cache, time.Hour, 24*time.Hour, fixedClock, log)

	return srv, store, fs
}

func writeSnapshotAged(t *testing.T, store *snapshot.Store, fs afero.Fs, age time.Duration) {
	t.Helper()

	require.NoError(t, store.WriteCurrent(&entity.ContentBundle{Source: "disk"}))

	mtime := testNow.Add(-age)
	require.NoError(t, fs.Chtimes("/data/"+snapshot.CurrentFileName, mtime, mtime))
}

func TestGetContentFromDisk(t *testing.T) {
	srv, store, _ := newTestService(t, nil)

	require.NoError(t, store.WriteCurrent(&entity.ContentBundle{Source: "disk"}))

	bundle := srv.GetContent(context.Background())
	assert.Equal(t, "disk", bundle.Source)
}

// No snapshot on disk: the service serves the embedded fallback catalog
// instead of failing.
func TestGetContentServesFallbackWhenMissing(t *testing.T) {
	srv, _, _ := newTestService(t, nil)

	bundle := srv.GetContent(context.Background())
	require.NotNil(t, bundle)

	assert.Equal(t, fallback.SourceLabel, bundle.Source)
	assert.Len(t, bundle.Shows, fallback.ShowCount())
	assert.Len(t, bundle.Series, fallback.SeriesCount())
	assert.Len(t, bundle.FeaturedContent, 3)
	assert.Equal(t, len(bundle.Shows), bundle.Stats.TotalShows)
}

func TestGetContentServesFallbackOnCorruptSnapshot(t *testing.T) {
	srv, _, fs := newTestService(t, nil)

	require.NoError(t, afero.WriteFile(fs, "/data/"+snapshot.CurrentFileName, []byte("{not json"), 0o644))

	bundle := srv.GetContent(context.Background())
	assert.Equal(t, fallback.SourceLabel, bundle.Source)
}

type mockCache struct {
	bundle *entity.ContentBundle
	err    error
	sets   int
}

func (c *mockCache) Get(_ context.Context) (*entity.ContentBundle, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.bundle == nil {
		return nil, common.ErrCacheMiss
	}

	return c.bundle, nil
}

func (c *mockCache) Set(_ context.Context, bundle *entity.ContentBundle) error {
	c.bundle = bundle
	c.sets++

	return nil
}

func TestGetContentPrefersCache(t *testing.T) {
	cache := &mockCache{bundle: &entity.ContentBundle{Source: "cache"}}
	srv, store, _ := newTestService(t, cache)

	require.NoError(t, store.WriteCurrent(&entity.ContentBundle{Source: "disk"}))

	bundle := srv.GetContent(context.Background())
	assert.Equal(t, "cache", bundle.Source)
}

func TestGetContentFillsCacheOnMiss(t *testing.T) {
	cache := &mockCache{}
	srv, store, _ := newTestService(t, cache)

	require.NoError(t, store.WriteCurrent(&entity.ContentBundle{Source: "disk"}))

	bundle := srv.GetContent(context.Background())
	assert.Equal(t, "disk", bundle.Source)
	assert.Equal(t, 1, cache.sets)
}

func TestGetContentCacheFailureFallsThroughToDisk(t *testing.T) {
	cache := &mockCache{err: fmt.Errorf("redis down")}
	srv, store, _ := newTestService(t, cache)

	require.NoError(t, store.WriteCurrent(&entity.ContentBundle{Source: "disk"}))

	bundle := srv.GetContent(context.Background())
	assert.Equal(t, "disk", bundle.Source)
}

func TestGetStatusNoSnapshot(t *testing.T) {
	srv, _, _ := newTestService(t, nil)

	status := srv.GetStatus()
	assert.False(t, status.IsFresh)
	assert.True(t, math.IsInf(status.Age, 1))
	assert.Equal(t, NoDataAge, status.AgeString)
	assert.True(t, status.NeedsRefresh)
}

func TestGetStatusBoundaries(t *testing.T) {
	testCases := []struct {
		name         string
		age          time.Duration
		isFresh      bool
		needsRefresh bool
		ageString    string
	}{
		{"59 minutes", 59 * time.Minute, true, false, "59 minutes ago"},
		{"61 minutes", 61 * time.Minute, false, false, "1 hours ago"},
		{"5 hours", 5 * time.Hour, false, false, "5 hours ago"},
		{"25 hours", 25 * time.Hour, false, true, "1 days ago"},
		{"3 days", 72 * time.Hour, false, true, "3 days ago"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, store, fs := newTestService(t, nil)
			writeSnapshotAged(t, store, fs, tc.age)

			status := srv.GetStatus()
			assert.Equal(t, tc.isFresh, status.IsFresh)
			assert.Equal(t, tc.needsRefresh, status.NeedsRefresh)
			assert.Equal(t, tc.ageString, status.AgeString)
			assert.InDelta(t, tc.age.Hours(), status.Age, 0.01)
		})
	}
}

func TestArchives(t *testing.T) {
	srv, store, _ := newTestService(t, nil)

	require.NoError(t, store.WriteArchive(&entity.ContentBundle{Source: "a"}, "2025-06-14"))
	require.NoError(t, store.WriteArchive(&entity.ContentBundle{Source: "b"}, "2025-06-15"))

	keys, err := srv.Archives()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-15", "2025-06-14"}, keys)
}

func TestArchive(t *testing.T) {
	srv, store, _ := newTestService(t, nil)

	require.NoError(t, store.WriteArchive(&entity.ContentBundle{Source: "a"}, "2025-06-14"))

	bundle, err := srv.Archive("2025-06-14")
	require.NoError(t, err)
	assert.Equal(t, "a", bundle.Source)

	_, err = srv.Archive("2024-01-01")
	assert.ErrorIs(t, err, common.ErrArchiveNotFound)
}
