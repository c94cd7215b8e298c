// Package snapshot owns the on-disk bundle files: one "current" snapshot,
// overwritten whole each run, and a rolling archive of dated snapshots.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/cosmicclassroom/contentd/internal/common"
	"github.com/cosmicclassroom/contentd/internal/entity"
)

const (
	CurrentFileName   = "content.json"
	archivePrefix     = "content-"
	archiveSuffix     = ".json"
	ArchiveDateLayout = "2006-01-02"

	dirPerm  = 0o755
	filePerm = 0o644
)

var archivePattern = regexp.MustCompile(`^content-\d{4}-\d{2}-\d{2}\.json$`)

// Store persists content bundles under a single data directory. The scraper
// job is the only writer; the read service only ever reads.
type Store struct {
	fs      afero.Fs
	dataDir string
	log     *slog.Logger
}

func NewStore(dataDir string, log *slog.Logger) (*Store, error) {
	return NewStoreWithFS(afero.NewOsFs(), dataDir, log)
}

func NewStoreWithFS(fs afero.Fs, dataDir string, log *slog.Logger) (*Store, error) {
	if err := fs.MkdirAll(dataDir, dirPerm); err != nil {
		return nil, fmt.Errorf("cannot create data dir %s: %w", dataDir, err)
	}

	return &Store{
		fs:      fs,
		dataDir: dataDir,
		log:     log.With(slog.String("item", "SnapshotStore")),
	}, nil
}

// WriteCurrent replaces the current snapshot. The bundle is written to a
// temp file and renamed so a concurrent reader sees old-or-new, never a
// torn file.
func (s *Store) WriteCurrent(bundle *entity.ContentBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode bundle: %w", err)
	}

	tmpPath := filepath.Join(s.dataDir, CurrentFileName+".tmp")
	if err := afero.WriteFile(s.fs, tmpPath, data, filePerm); err != nil {
		return fmt.Errorf("cannot write snapshot: %w", err)
	}

	target := filepath.Join(s.dataDir, CurrentFileName)
	if err := s.fs.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("cannot replace current snapshot: %w", err)
	}

	s.log.Info("Wrote current snapshot", slog.String("path", target), slog.Int("bytes", len(data)))

	return nil
}

// WriteArchive persists the bundle under its UTC date key. Archives are
// read-only after creation; the same key within one day is overwritten,
// which keeps reruns idempotent.
func (s *Store) WriteArchive(bundle *entity.ContentBundle, dateKey string) error {
	if _, err := time.Parse(ArchiveDateLayout, dateKey); err != nil {
		return fmt.Errorf("invalid archive date key %q: %w", dateKey, err)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode bundle: %w", err)
	}

	path := filepath.Join(s.dataDir, archivePrefix+dateKey+archiveSuffix)
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("cannot write archive: %w", err)
	}

	s.log.Info("Wrote archive snapshot", slog.String("path", path))

	return nil
}

// ReadCurrent loads the current snapshot. Returns
// common.ErrNoCurrentSnapshot when no run has ever persisted one.
func (s *Store) ReadCurrent() (*entity.ContentBundle, error) {
	return s.readBundle(filepath.Join(s.dataDir, CurrentFileName), common.ErrNoCurrentSnapshot)
}

// ReadArchive loads the archive for a date key.
func (s *Store) ReadArchive(dateKey string) (*entity.ContentBundle, error) {
	if _, err := time.Parse(ArchiveDateLayout, dateKey); err != nil {
		return nil, common.ErrArchiveNotFound
	}

	return s.readBundle(filepath.Join(s.dataDir, archivePrefix+dateKey+archiveSuffix), common.ErrArchiveNotFound)
}

func (s *Store) readBundle(path string, notFound error) (*entity.ContentBundle, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if exists, _ := afero.Exists(s.fs, path); !exists {
			return nil, notFound
		}

		return nil, fmt.Errorf("cannot read snapshot %s: %w", path, err)
	}

	var bundle entity.ContentBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("cannot decode snapshot %s: %w", path, err)
	}

	return &bundle, nil
}

// CurrentModTime reports the mtime of the current snapshot for freshness
// computation. ok is false when the file does not exist.
func (s *Store) CurrentModTime() (time.Time, bool) {
	info, err := s.fs.Stat(filepath.Join(s.dataDir, CurrentFileName))
	if err != nil {
		return time.Time{}, false
	}

	return info.ModTime(), true
}

// ListArchives returns archive date keys, newest first.
func (s *Store) ListArchives() ([]string, error) {
	names, err := s.archiveNames()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, name[len(archivePrefix):len(name)-len(archiveSuffix)])
	}

	return keys, nil
}

// PruneArchives deletes all but the keep lexicographically-greatest dated
// archives. Date keys sort the same lexicographically and chronologically.
func (s *Store) PruneArchives(keep int) error {
	names, err := s.archiveNames()
	if err != nil {
		return fmt.Errorf("cannot list archives: %w", err)
	}

	if len(names) <= keep {
		return nil
	}

	for _, name := range names[keep:] {
		path := filepath.Join(s.dataDir, name)
		if err := s.fs.Remove(path); err != nil {
			return fmt.Errorf("cannot delete old archive %s: %w", path, err)
		}

		s.log.Info("Deleted old archive", slog.String("path", path))
	}

	return nil
}

func (s *Store) archiveNames() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dataDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, info := range infos {
		if !info.IsDir() && archivePattern.MatchString(info.Name()) {
			names = append(names, info.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	return names, nil
}
