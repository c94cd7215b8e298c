// Package content is the read path: it serves the most recent persisted
// bundle with freshness metadata and never fails the caller.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cosmicclassroom/contentd/internal/common"
	"github.com/cosmicclassroom/contentd/internal/entity"
	"github.com/cosmicclassroom/contentd/internal/fallback"
)

const serviceName = "content"

// NoDataAge is the age reported when no snapshot file exists.
const NoDataAge = "No data file"

type SnapshotReader interface {
	ReadCurrent() (*entity.ContentBundle, error)
	ReadArchive(dateKey string) (*entity.ContentBundle, error)
	ListArchives() ([]string, error)
	CurrentModTime() (time.Time, bool)
}

// BundleCache is the optional TTL cache in front of the snapshot file.
type BundleCache interface {
	Get(ctx context.Context) (*entity.ContentBundle, error)
	Set(ctx context.Context, bundle *entity.ContentBundle) error
}

type Service struct {
	store SnapshotReader
	cache BundleCache // may be nil
	fresh time.Duration
	stale time.Duration
	clock func() time.Time
	log   *slog.Logger
}

func New(store SnapshotReader, cache BundleCache, fresh, stale time.Duration,
	clock func() time.Time, log *slog.Logger) *Service {

	return &Service{
		store: store,
		cache: cache,
		fresh: fresh,
		stale: stale,
		clock: clock,
		log:   log.With(slog.String("service", serviceName)),
	}
}

// GetContent returns the current bundle: cache, then disk, then the
// baked-in fallback. It never returns an error; the worst case is serving
// fallback content, and consumers can only tell by inspecting
// source/error/dataStatus.
func (s *Service) GetContent(ctx context.Context) *entity.ContentBundle {
	if s.cache != nil {
		if bundle, err := s.cache.Get(ctx); err == nil {
			return bundle
		} else if !errors.Is(err, common.ErrCacheMiss) {
			s.log.Warn("Cache read failed, falling through to disk", slog.Any("error", err))
		}
	}

	bundle, err := s.store.ReadCurrent()
	if err != nil {
		if !errors.Is(err, common.ErrNoCurrentSnapshot) {
			s.log.Error("Cannot read current snapshot, serving fallback", slog.Any("error", err))
		}

		return fallback.Bundle(s.clock(), "")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, bundle); err != nil {
			s.log.Warn("Cannot cache bundle", slog.Any("error", err))
		}
	}

	return bundle
}

// GetStatus classifies the current snapshot's age from its file mtime.
func (s *Service) GetStatus() entity.DataStatus {
	mtime, ok := s.store.CurrentModTime()
	if !ok {
		return entity.DataStatus{
			IsFresh:      false,
			Age:          math.Inf(1),
			AgeString:    NoDataAge,
			NeedsRefresh: true,
		}
	}

	age := s.clock().Sub(mtime)
	hours := age.Hours()

	return entity.DataStatus{
		IsFresh:      age < s.fresh,
		Age:          hours,
		AgeString:    ageString(hours),
		NeedsRefresh: age > s.stale,
	}
}

// Archives lists available archive date keys, newest first.
func (s *Service) Archives() ([]string, error) {
	keys, err := s.store.ListArchives()
	if err != nil {
		s.log.Error("Cannot list archives", slog.Any("error", err))

		return nil, fmt.Errorf("cannot list archives: %w", err)
	}

	return keys, nil
}

// Archive loads one archived bundle by date key.
func (s *Service) Archive(dateKey string) (*entity.ContentBundle, error) {
	bundle, err := s.store.ReadArchive(dateKey)
	if err != nil {
		if !errors.Is(err, common.ErrArchiveNotFound) {
			s.log.Error("Cannot read archive", slog.String("date_key", dateKey), slog.Any("error", err))
		}

		return nil, fmt.Errorf("cannot read archive %s: %w", dateKey, err)
	}

	return bundle, nil
}

func ageString(hours float64) string {
	switch {
	case hours < 1:
		return fmt.Sprintf("%d minutes ago", int(math.Round(hours*60)))
	case hours < 24:
		return fmt.Sprintf("%d hours ago", int(math.Round(hours)))
	default:
		return fmt.Sprintf("%d days ago", int(math.Round(hours/24)))
	}
}
