// Package container is the public client API: a Store owning the embedded
// engine, and Container sessions carrying the commit-mode state machine,
// row operations, queries, index and trigger management.
package container

import (
	"context"
	"log"

	"github.com/tesserdb/tesser/internal/blob"
	"github.com/tesserdb/tesser/internal/config"
	"github.com/tesserdb/tesser/internal/engine"
	"github.com/tesserdb/tesser/internal/storage"
	"github.com/tesserdb/tesser/internal/trigger"
	"github.com/tesserdb/tesser/internal/txn"
	"github.com/tesserdb/tesser/pkg/types"
)

// Store is the client entry point. It owns the embedded engine, the blob
// store and the trigger notifier. A Store is safe for concurrent use;
// individual Container sessions are not.
type Store struct {
	cfg    *config.Config
	engine *engine.Engine
	blobs  *blob.Store
	logger *log.Logger
}

// Open builds a store from configuration: object storage for blob spill,
// trigger delivery, and the engine with its durable snapshot.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	var objects storage.ObjectStorage
	switch cfg.Storage.Type {
	case "s3":
		s3, err := storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:   cfg.Storage.S3.Region,
			Endpoint: cfg.Storage.S3.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		objects = s3
	default:
		local, err := storage.NewLocalStorage(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		objects = local
	}

	eng, err := engine.New(engine.Options{
		Partitions:   cfg.PartitionCount,
		Notifier:     trigger.NewNotifier(cfg.Trigger.Timeout),
		SnapshotPath: cfg.SnapshotPath(),
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		cfg:    cfg,
		engine: eng,
		blobs:  blob.NewStore(objects, "blobs", cfg.Storage.BlobSpillThreshold),
		logger: log.New(log.Writer(), "[tesser] ", log.LstdFlags),
	}, nil
}

// PutContainer creates the container if needed and opens a session on it.
// An existing container with a different schema is rejected.
func (s *Store) PutContainer(info *types.ContainerInfo) (*Container, error) {
	h, err := s.engine.PutContainer(info)
	if err != nil {
		return nil, err
	}
	return s.newSession(h)
}

// GetContainer opens a session on an existing container, or nil when no
// container with that name exists.
func (s *Store) GetContainer(name string) (*Container, error) {
	_, h, ok := s.engine.GetContainer(name)
	if !ok {
		return nil, nil
	}
	return s.newSession(h)
}

// DropContainer removes a container. Sessions open on it go stale.
// Dropping a missing container is a no-op.
func (s *Store) DropContainer(name string) {
	s.engine.DropContainer(name)
}

// CreateBlob returns an empty blob handle backed by the store's object
// storage.
func (s *Store) CreateBlob() *blob.Blob {
	return s.blobs.NewBlob()
}

// Close shuts the store down. Sessions opened from it must be closed
// first; their locks die with the process either way.
func (s *Store) Close() error {
	return s.engine.Close()
}

func (s *Store) newSession(h engine.Handle) (*Container, error) {
	schema, err := s.engine.Schema(h)
	if err != nil {
		return nil, err
	}
	info, err := s.engine.ContainerInfo(h)
	if err != nil {
		return nil, err
	}
	return &Container{
		store:   s,
		handle:  h,
		schema:  schema,
		typ:     info.Type(),
		session: txn.NewSession(s.cfg.Transaction.Timeout),
	}, nil
}
