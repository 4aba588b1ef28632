package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

type FilesystemCache struct{}

var _ TileStore = (*FilesystemCache)(nil)

func NewFilesystemCache() *FilesystemCache {
	return &FilesystemCache{}
}

// Exists is a single stat. Zero-byte or truncated files are still hits.
func (c *FilesystemCache) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Prepare creates every missing parent directory of path.
func (c *FilesystemCache) Prepare(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create tile directory: %w", err)
	}
	return nil
}

func (c *FilesystemCache) Write(path string, data []byte) error {
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to a uniquely named temp file next to path and
// renames it into place, so readers see either nothing or the whole file.
// Concurrent writers to the same path each use their own temp file and the
// last rename wins.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}

	return nil
}
