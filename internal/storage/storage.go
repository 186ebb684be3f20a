// Package storage provides the object storage abstraction used for blob
// payload spill and durable snapshots.
package storage

import (
	"context"
)

// ObjectStorage abstracts a flat key/value object store.
// Implementations include S3 and the local filesystem.
type ObjectStorage interface {
	// Put writes an object, replacing any existing object at the path.
	Put(ctx context.Context, objectPath string, data []byte) error

	// Get reads an object. A missing object yields an OBJECT_NOT_FOUND
	// error.
	Get(ctx context.Context, objectPath string) ([]byte, error)

	// Delete removes an object. Deleting a missing object is not an
	// error.
	Delete(ctx context.Context, objectPath string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// List returns all object paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
