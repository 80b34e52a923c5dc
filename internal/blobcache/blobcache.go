// Package blobcache stores cached image bytes and the raw manifest text
// as files in a single flat directory.
package blobcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const (
	manifestFilename = "images.txt"
	lockFilename     = ".cache.lock"
)

// Cache is a flat-directory blob store. The directory is guarded by a
// file lock so two processes never share one cache.
type Cache struct {
	dir  string
	lock *flock.Flock
}

func New(dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("blobcache: required cache dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobcache: create cache dir: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("blobcache: resolve cache dir: %w", err)
	}

	lock := flock.New(filepath.Join(absDir, lockFilename))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("blobcache: acquire cache lock: %w", err)
	}
	if !ok {
		return nil, errors.New("blobcache: cache dir is locked by another instance")
	}

	return &Cache{dir: absDir, lock: lock}, nil
}

// Close releases the cache directory lock.
func (c *Cache) Close() error {
	if c.lock == nil {
		return nil
	}
	err := c.lock.Unlock()
	c.lock = nil
	return err
}

func (c *Cache) Dir() string {
	return c.dir
}

// WriteBlob persists data under the given filename and returns the
// absolute path. The write goes through a temp file and a rename so a
// partial blob is never observable.
func (c *Cache) WriteBlob(name string, data []byte) (string, error) {
	clean := sanitizeName(name)
	if clean == "" {
		return "", errors.New("blobcache: bad blob name " + name)
	}

	path := filepath.Join(c.dir, clean)
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("blobcache: open tmp: %w", err)
	}

	_, writeErr := f.Write(data)
	syncErr := f.Sync()
	closeErr := f.Close()

	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("blobcache: write blob: %w", writeErr)
	} else if syncErr != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("blobcache: sync blob: %w", syncErr)
	} else if closeErr != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("blobcache: close blob: %w", closeErr)
	} else if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("blobcache: rename blob: %w", err)
	}
	return path, nil
}

// ReadBlob returns the bytes of a cached blob by filename.
func (c *Cache) ReadBlob(name string) ([]byte, error) {
	clean := sanitizeName(name)
	if clean == "" {
		return nil, errors.New("blobcache: bad blob name " + name)
	}
	data, err := os.ReadFile(filepath.Join(c.dir, clean))
	if err != nil {
		return nil, fmt.Errorf("blobcache: read blob: %w", err)
	}
	return data, nil
}

func (c *Cache) WriteManifest(text string) error {
	_, err := c.WriteBlob(manifestFilename, []byte(text))
	return err
}

func (c *Cache) ReadManifest() (string, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, manifestFilename))
	if err != nil {
		return "", fmt.Errorf("blobcache: read manifest: %w", err)
	}
	return string(data), nil
}

func (c *Cache) HasManifest() bool {
	info, err := os.Stat(filepath.Join(c.dir, manifestFilename))
	return err == nil && !info.IsDir()
}

// ClearAll deletes every cached file in the directory. The lock file
// survives so the running instance keeps its claim. Errors are collected
// per file rather than aborting the sweep.
func (c *Cache) ClearAll() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("blobcache: list cache dir: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == lockFilename {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			errs = append(errs, fmt.Errorf("blobcache: remove %s: %w", entry.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func sanitizeName(name string) string {
	res := strings.TrimSpace(name)
	if res == "" {
		return ""
	}
	res = filepath.Base(res)
	res = strings.Trim(res, ". ")
	if res == "" || res == string(os.PathSeparator) {
		return ""
	}
	return res
}
