package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/tesserdb/tesser/internal/errors"
)

// LocalStorage implements ObjectStorage on the local filesystem. This is
// the default backend for embedded deployments and tests.
type LocalStorage struct {
	basePath string
	mu       sync.Mutex
}

// NewLocalStorage creates a filesystem-backed object store rooted at
// basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.NewStorageError(errors.CodeUploadFailed,
			"failed to create storage directory", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Put writes an object, replacing any existing object at the path. The
// write goes through a temp file and rename so readers never observe a
// partial object.
func (l *LocalStorage) Put(ctx context.Context, objectPath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	dest := l.fullPath(objectPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed, "failed to create object directory", err)
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed, "failed to write object", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return errors.NewStorageError(errors.CodeUploadFailed, "failed to publish object", err)
	}
	return nil
}

// Get reads an object.
func (l *LocalStorage) Get(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCategoryStorage, errors.CodeObjectNotFound,
				"object not found: "+objectPath)
		}
		return nil, errors.NewStorageError(errors.CodeDownloadFailed, "failed to read object", err)
	}
	return data, nil
}

// Delete removes an object. Missing objects are ignored.
func (l *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(l.fullPath(objectPath)); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(errors.CodeUploadFailed, "failed to delete object", err)
	}
	return nil
}

// Exists reports whether an object is present.
func (l *LocalStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns all object paths under the given prefix.
func (l *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var objects []string
	err := filepath.Walk(l.fullPath(prefix), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			objects = append(objects, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

func (l *LocalStorage) fullPath(objectPath string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(objectPath))
}
