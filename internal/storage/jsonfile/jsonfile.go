// Package jsonfile provides a storage.Backend that keeps the whole snapshot in
// a single JSON file, replaced atomically on every save.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mmynk/expense-tracker/internal/storage"
)

// Ensure FileBackend implements storage.Backend
var (
	_ storage.Backend     = (*FileBackend)(nil)
	_ storage.Quarantiner = (*FileBackend)(nil)
)

// FileBackend stores a snapshot as an indented JSON document at path.
type FileBackend struct {
	path string
	now  func() time.Time
}

// New creates a FileBackend for the given path, creating parent directories.
// The file itself is created on the first Save.
func New(path string) (*FileBackend, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{path: path, now: time.Now}, nil
}

// Path returns the data file location.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads and decodes the data file. A missing file is an empty snapshot.
func (b *FileBackend) Load(ctx context.Context) (*storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	return storage.DecodeSnapshot(data)
}

// Save writes the snapshot to a temporary file in the same directory, syncs
// it and renames it over the data file.
func (b *FileBackend) Save(ctx context.Context, snap *storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	committed = true

	syncDir(filepath.Dir(b.path))
	return nil
}

// Quarantine renames the current data file to <path>.corrupt-<unix seconds>.
func (b *FileBackend) Quarantine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := fmt.Sprintf("%s.corrupt-%d", b.path, b.now().Unix())
	if err := os.Rename(b.path, dst); err != nil {
		return "", fmt.Errorf("failed to quarantine data file: %w", err)
	}
	return dst, nil
}

// Close is a no-op; the file is only open during Load and Save.
func (b *FileBackend) Close() error {
	return nil
}

// syncDir flushes the directory entry after a rename. Not every platform
// supports syncing a directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}
