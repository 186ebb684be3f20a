// Package blob implements large binary object handles: in-memory payloads
// with stream and range writes, explicit release, and compressed spill to
// object storage.
package blob

import (
	"context"
	"sync"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/internal/storage"
)

// Store manages blob payloads. Payloads above the spill threshold are
// compressed with snappy and offloaded to object storage on Spill.
type Store struct {
	objects        storage.ObjectStorage
	prefix         string
	spillThreshold int
}

// NewStore creates a blob store spilling to the given object storage under
// prefix. spillThreshold is the payload size in bytes above which Spill
// offloads the payload; zero or negative spills everything.
func NewStore(objects storage.ObjectStorage, prefix string, spillThreshold int) *Store {
	return &Store{objects: objects, prefix: prefix, spillThreshold: spillThreshold}
}

// NewBlob creates an empty blob handle.
func (s *Store) NewBlob() *Blob {
	return &Blob{store: s, id: uuid.New()}
}

// NewBlobFrom creates a blob handle seeded with a copy of data.
func (s *Store) NewBlobFrom(data []byte) *Blob {
	b := s.NewBlob()
	b.data = append([]byte(nil), data...)
	return b
}

func (s *Store) objectPath(id uuid.UUID) string {
	return s.prefix + "/" + id.String()
}

// Blob is a handle on a binary payload. Handles do not expire; they stay
// valid until Free is called. A freed handle rejects every operation.
type Blob struct {
	store *Store
	id    uuid.UUID

	mu      sync.Mutex
	data    []byte
	spilled bool
	freed   bool
}

// ID returns the handle's identity.
func (b *Blob) ID() uuid.UUID { return b.id }

// Length returns the payload size in bytes.
func (b *Blob) Length() (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return 0, freedErr()
	}
	return int64(len(b.data)), nil
}

// Bytes returns a copy of the payload.
func (b *Blob) Bytes() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return nil, freedErr()
	}
	return append([]byte(nil), b.data...), nil
}

// Write appends p to the payload, satisfying io.Writer for stream writes.
func (b *Blob) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return 0, freedErr()
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

// WriteAt overwrites the byte range starting at off, growing the payload
// with zero fill when the range extends past the current end.
func (b *Blob) WriteAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return 0, freedErr()
	}
	if off < 0 {
		return 0, errors.NewValidationError(errors.CodeTypeMismatch,
			"blob write offset must not be negative")
	}
	end := int(off) + len(p)
	for len(b.data) < end {
		b.data = append(b.data, 0)
	}
	copy(b.data[off:end], p)
	return len(p), nil
}

// Free releases the payload and any spilled object. The handle is dead
// afterwards; freeing twice reports the handle as freed.
func (b *Blob) Free(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return freedErr()
	}
	b.freed = true
	b.data = nil
	if b.spilled {
		return b.store.objects.Delete(ctx, b.store.objectPath(b.id))
	}
	return nil
}

// Spill offloads a large payload to object storage, snappy-compressed.
// Payloads at or under the store threshold stay in memory.
func (b *Blob) Spill(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return freedErr()
	}
	if len(b.data) <= b.store.spillThreshold {
		return nil
	}
	compressed := snappy.Encode(nil, b.data)
	if err := b.store.objects.Put(ctx, b.store.objectPath(b.id), compressed); err != nil {
		return err
	}
	b.spilled = true
	return nil
}

// Load restores a spilled payload from object storage, replacing the
// in-memory copy.
func (b *Blob) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return freedErr()
	}
	if !b.spilled {
		return nil
	}
	compressed, err := b.store.objects.Get(ctx, b.store.objectPath(b.id))
	if err != nil {
		return err
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return errors.NewStorageError(errors.CodeDownloadFailed,
			"failed to decompress blob payload", err)
	}
	b.data = data
	return nil
}

func freedErr() error {
	return errors.New(errors.ErrCategoryValidation, errors.CodeBlobFreed,
		"blob handle has been freed")
}
