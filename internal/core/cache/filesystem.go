package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"
)

// FileSystemBackend stores the cache as a JSON file on local disk.
type FileSystemBackend struct {
	path string
}

// NewFileSystemBackend creates a backend writing to path.
func NewFileSystemBackend(path string) *FileSystemBackend {
	return &FileSystemBackend{path: path}
}

func (b *FileSystemBackend) Name() string {
	return "filesystem"
}

// Path returns the cache file location.
func (b *FileSystemBackend) Path() string {
	return b.path
}

func (b *FileSystemBackend) Load(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file %s: %w", b.path, err)
	}

	entries, err := DecodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parse cache file %s: %w", b.path, err)
	}
	return entries, nil
}

func (b *FileSystemBackend) Save(ctx context.Context, entries []Entry) error {
	data, err := EncodeEntries(entries, true)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	// Write to a temp file and rename so a crash never leaves a torn file
	if err := atomic.WriteFile(b.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write cache file %s: %w", b.path, err)
	}
	return nil
}
