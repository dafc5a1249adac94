package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/oldmonad/cvmInventory/internal/inventory"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"go.uber.org/zap"
)

const (
	cacheFileName = "inventory.cache"
	indexFileName = "inventory.index"
)

// Store persists one inventory snapshot plus its address index under a
// directory. A single process accesses it per run; overlapping runs can at
// worst replace each other's snapshot, never corrupt it, because every
// write goes through a temp file and rename.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) cachePath() string { return filepath.Join(s.dir, cacheFileName) }
func (s *Store) indexPath() string { return filepath.Join(s.dir, indexFileName) }

// IsFresh reports whether a usable snapshot exists whose age does not
// exceed maxAge. A zero maxAge disables the cache entirely.
func (s *Store) IsFresh(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	info, err := os.Stat(s.cachePath())
	if err != nil {
		return false
	}
	if _, err := os.Stat(s.indexPath()); err != nil {
		return false
	}
	return now.Sub(info.ModTime()) <= maxAge
}

// Load reads the cached document. A missing entry is an ErrCacheMiss and a
// present-but-undecodable one an ErrCorruptCache; the caller treats both as
// a miss and refetches.
func (s *Store) Load() (*inventory.Document, error) {
	data, err := os.ReadFile(s.cachePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewCacheMiss(s.cachePath())
		}
		return nil, errors.NewCorruptCache(s.cachePath(), err)
	}

	doc := inventory.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.NewCorruptCache(s.cachePath(), err)
	}
	return doc, nil
}

// LoadIndex reads the address index. It is an optimization: on any failure
// the caller falls back to loading the full document.
func (s *Store) LoadIndex() (inventory.Index, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewCacheMiss(s.indexPath())
		}
		return nil, errors.NewCorruptCache(s.indexPath(), err)
	}

	var index inventory.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, errors.NewCorruptCache(s.indexPath(), err)
	}
	return index, nil
}

// Store persists the document and index. Each artifact is written to a
// temp file and renamed into place, so a crash mid-write leaves either the
// previous entry or none, never a partial one. The entry's timestamp is
// the file mtime, pinned to now.
func (s *Store) Store(doc *inventory.Document, index inventory.Index, now time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.NewCacheWrite(s.dir, err)
	}

	docData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewCacheWrite(s.cachePath(), err)
	}
	indexData, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return errors.NewCacheWrite(s.indexPath(), err)
	}

	if err := s.writeAtomic(s.indexPath(), indexData, now); err != nil {
		return err
	}
	// Document last: freshness is keyed off its mtime, so a snapshot is
	// never reported fresh while its index is still the old one.
	return s.writeAtomic(s.cachePath(), docData, now)
}

// Clear removes the persisted entry; removing an absent entry is not an
// error.
func (s *Store) Clear() error {
	for _, path := range []string{s.cachePath(), s.indexPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.NewCacheWrite(path, err)
		}
	}
	return nil
}

func (s *Store) writeAtomic(path string, data []byte, now time.Time) error {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewCacheWrite(path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewCacheWrite(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewCacheWrite(path, err)
	}
	if err := os.Chtimes(tmpName, now, now); err != nil {
		os.Remove(tmpName)
		return errors.NewCacheWrite(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewCacheWrite(path, err)
	}

	logger.GetLogger().Debug("cache artifact written", zap.String("path", path))
	return nil
}
