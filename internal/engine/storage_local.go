package engine

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"forum-tenant-sync/internal/errors"
)

// DefaultBackupDir is where bundles land when no directory is configured
const DefaultBackupDir = "backups"

// LocalStorage writes bundle files to a directory on the local filesystem
type LocalStorage struct {
	directory string
}

// NewLocalStorage creates a LocalStorage rooted at config.Directory,
// creating the directory if it does not exist
func NewLocalStorage(config LocalConfig) (*LocalStorage, error) {
	dir := config.Directory
	if dir == "" {
		dir = DefaultBackupDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewStorageError("failed to create backup directory", err)
	}
	return &LocalStorage{directory: dir}, nil
}

// Write stores a bundle file and returns its path
func (ls *LocalStorage) Write(_ context.Context, filename string, data []byte) (string, error) {
	path := filepath.Join(ls.directory, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.NewStorageError("failed to write bundle file", err)
	}
	return path, nil
}

// Read loads a bundle file. The location may be a path returned by Write
// or any filesystem path, so restore can load bundles from outside the
// configured directory.
func (ls *LocalStorage) Read(_ context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("bundle file not found: "+location, err)
		}
		return nil, errors.NewStorageError("failed to read bundle file", err)
	}
	return data, nil
}

// List returns the paths of all bundle files in the directory
func (ls *LocalStorage) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(ls.directory)
	if err != nil {
		return nil, errors.NewStorageError("failed to list backup directory", err)
	}

	var locations []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		locations = append(locations, filepath.Join(ls.directory, entry.Name()))
	}
	sort.Strings(locations)
	return locations, nil
}
