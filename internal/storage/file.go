package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileGateway stores each key as <dir>/<key>.json. Writes go to a temp file
// that is fsynced and renamed over the target, so a crash leaves either the
// old or the new value.
type FileGateway struct {
	dir string
	mu  sync.Mutex
}

// NewFileGateway creates dir if needed and returns a gateway rooted there
func NewFileGateway(dir string) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileGateway{dir: dir}, nil
}

// Dir returns the directory holding the records
func (f *FileGateway) Dir() string {
	return f.dir
}

func (f *FileGateway) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Get implements Gateway
func (f *FileGateway) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put implements Gateway
func (f *FileGateway) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(key)
	tmpFile := target + ".tmp"
	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err = file.Write(value); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, target)
}

// Close implements Gateway
func (f *FileGateway) Close() error {
	return nil
}
