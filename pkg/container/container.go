package container

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tesserdb/tesser/internal/blob"
	"github.com/tesserdb/tesser/internal/codec"
	"github.com/tesserdb/tesser/internal/engine"
	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/internal/txn"
	"github.com/tesserdb/tesser/pkg/types"
)

// Container is a session on one container: a commit-mode state machine
// plus the handle row and schema operations go through. A session has a
// single logical owner and is not safe for concurrent use; independent
// sessions on the same container contend through the engine's shared lock
// table.
type Container struct {
	store   *Store
	handle  engine.Handle
	schema  *codec.Schema
	typ     types.ContainerType
	session *txn.Session
}

// Type reports the container type. It answers locally and fails only on
// a closed session.
func (c *Container) Type() (types.ContainerType, error) {
	if c.session.State() == txn.Closed {
		return 0, errors.NewClosedError("container is closed")
	}
	return c.typ, nil
}

// Name returns the container name.
func (c *Container) Name() string { return c.handle.Name() }

// CreateBlob returns an empty blob handle for use in Blob columns. Blob
// handles have no validity period and outlive the session.
func (c *Container) CreateBlob() *blob.Blob {
	return c.store.blobs.NewBlob()
}

// CreateRow builds a row pre-filled with each column's empty value.
func (c *Container) CreateRow() types.Row {
	return c.schema.EmptyRow()
}

// Put writes a row, deriving the key from the key column. On keyless
// containers every put appends a new row. exists reports whether a row
// with the same key was replaced; it is meaningless without a row key.
func (c *Container) Put(ctx context.Context, row types.Row) (bool, error) {
	_, cols, hasKey, err := c.schema.EncodeRow(row, nil)
	if err != nil {
		return false, err
	}
	key := c.rowIdentity(cols, hasKey)
	return c.mutate(ctx, func(id txn.ID, deadline time.Time) (bool, error) {
		return c.store.engine.Put(ctx, c.handle, id, deadline, key, cols)
	})
}

// PutWithKey writes a row addressed by an explicit key, overriding the
// key column's field. Keyless containers reject it.
func (c *Container) PutWithKey(ctx context.Context, key types.Value, row types.Row) (bool, error) {
	encKey, cols, _, err := c.schema.EncodeRow(row, &key)
	if err != nil {
		return false, err
	}
	return c.mutate(ctx, func(id txn.ID, deadline time.Time) (bool, error) {
		return c.store.engine.Put(ctx, c.handle, id, deadline, encKey, cols)
	})
}

// PutAll writes a batch of rows. When several rows carry the same key the
// rearmost wins. The batch reports only overall success; it is not atomic,
// so rows written before a failure stay written in autocommit mode.
func (c *Container) PutAll(ctx context.Context, rows []types.Row) error {
	entries := make([]engine.Entry, 0, len(rows))
	for _, row := range rows {
		_, cols, hasKey, err := c.schema.EncodeRow(row, nil)
		if err != nil {
			return err
		}
		entries = append(entries, engine.Entry{Key: c.rowIdentity(cols, hasKey), Row: cols})
	}
	_, err := c.mutate(ctx, func(id txn.ID, deadline time.Time) (bool, error) {
		return false, c.store.engine.PutAll(ctx, c.handle, id, deadline, entries)
	})
	return err
}

// Get reads a row by key without locking it.
func (c *Container) Get(ctx context.Context, key types.Value) (types.Row, bool, error) {
	return c.get(ctx, key, false)
}

// GetForUpdate reads a row by key and holds its update lock until the
// transaction commits, aborts or times out. The lock is taken whether or
// not the row exists. It is rejected in autocommit mode.
func (c *Container) GetForUpdate(ctx context.Context, key types.Value) (types.Row, bool, error) {
	if c.session.State() == txn.AutoCommit {
		return nil, false, errors.NewModeError(
			"get for update is not allowed in autocommit mode")
	}
	return c.get(ctx, key, true)
}

func (c *Container) get(ctx context.Context, key types.Value, forUpdate bool) (types.Row, bool, error) {
	encKey, err := c.schema.EncodeKey(key)
	if err != nil {
		return nil, false, err
	}
	id, deadline, err := c.begin()
	if err != nil {
		return nil, false, err
	}
	row, found, err := c.store.engine.Get(ctx, c.handle, id, deadline, encKey, forUpdate)
	if err != nil {
		return nil, false, c.fail(err, id)
	}
	return row, found, nil
}

// Remove deletes a row by key. Removing an absent key is a silent no-op
// reporting false. Inside a transaction the key's lock stays held even
// after the delete.
func (c *Container) Remove(ctx context.Context, key types.Value) (bool, error) {
	encKey, err := c.schema.EncodeKey(key)
	if err != nil {
		return false, err
	}
	return c.mutate(ctx, func(id txn.ID, deadline time.Time) (bool, error) {
		return c.store.engine.Remove(ctx, c.handle, id, deadline, encKey)
	})
}

// Commit makes the open transaction's work visible and releases its
// locks. Rejected in autocommit mode; a no-op when no transaction is
// open.
func (c *Container) Commit(ctx context.Context) error {
	id, had, err := c.session.Commit()
	if err != nil {
		return c.reap(err, id)
	}
	if !had {
		return nil
	}
	return c.store.engine.Commit(c.handle, id)
}

// Abort discards the open transaction's work and releases its locks.
// Rejected in autocommit mode; a no-op when no transaction is open.
func (c *Container) Abort(ctx context.Context) error {
	id, had, err := c.session.Abort()
	if err != nil {
		return c.reap(err, id)
	}
	if had {
		c.store.engine.Rollback(id)
	}
	return nil
}

// SetAutoCommit switches commit modes. Enabling autocommit while a
// transaction is open commits it implicitly.
func (c *Container) SetAutoCommit(ctx context.Context, enabled bool) error {
	id, had, err := c.session.SetAutoCommit(enabled)
	if err != nil {
		return c.reap(err, id)
	}
	if had {
		return c.store.engine.Commit(c.handle, id)
	}
	return nil
}

// Flush persists the container's committed rows to the durable snapshot.
func (c *Container) Flush(ctx context.Context) error {
	if c.session.State() == txn.Closed {
		return errors.NewClosedError("container is closed")
	}
	return c.store.engine.Flush(ctx, c.handle)
}

// Close aborts any open transaction and releases the session. It never
// fails in a way that keeps local resources held: the terminal state is
// reached unconditionally, and all further operations report the session
// as closed. Closing twice is a no-op.
func (c *Container) Close() error {
	id, had := c.session.Close()
	if had {
		c.store.engine.Rollback(id)
	}
	return nil
}

// begin establishes the transaction context for one operation: the
// current transaction in manual mode (opening one if needed), a one-shot
// context in autocommit mode. A timed-out transaction is rolled back
// here and its timeout surfaces on this operation.
func (c *Container) begin() (txn.ID, time.Time, error) {
	id, err := c.session.Begin()
	if err != nil {
		return txn.Nil, time.Time{}, c.reap(err, id)
	}
	if deadline, ok := c.session.Deadline(); ok {
		return id, deadline, nil
	}
	return id, time.Now().Add(c.store.cfg.Transaction.Timeout), nil
}

func (c *Container) mutate(ctx context.Context, op func(txn.ID, time.Time) (bool, error)) (bool, error) {
	id, deadline, err := c.begin()
	if err != nil {
		return false, err
	}
	result, err := op(id, deadline)
	if err != nil {
		return false, c.fail(err, id)
	}
	return result, nil
}

// fail maps an engine failure onto the session: timeouts and stale
// handles imply the transaction is dead, so its overlay and locks are
// reaped before the error is returned.
func (c *Container) fail(err error, id txn.ID) error {
	if errors.HasCode(err, errors.CodeTimeout) || errors.HasCode(err, errors.CodeStaleState) {
		if id != txn.Nil {
			c.store.engine.Rollback(id)
			c.session.Abort()
		}
	}
	return err
}

// reap releases engine state for a transaction the session already
// declared dead.
func (c *Container) reap(err error, id txn.ID) error {
	if id != txn.Nil {
		c.store.engine.Rollback(id)
	}
	return err
}

// rowIdentity returns the engine key for a row: the encoded key column,
// or a synthetic identity on keyless containers.
func (c *Container) rowIdentity(cols types.Row, hasKey bool) types.Value {
	if hasKey {
		return cols[0]
	}
	return types.NewString(uuid.NewString())
}
