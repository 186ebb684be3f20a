package container

import (
	"context"

	"github.com/tesserdb/tesser/internal/index"
	"github.com/tesserdb/tesser/pkg/types"
)

// CreateIndex creates the default-type index on a column. Creating an
// index the container already has is a no-op. An open transaction on this
// session is committed first.
func (c *Container) CreateIndex(ctx context.Context, columnName string) error {
	return c.createIndex(ctx, types.IndexInfoByColumn(columnName, types.IndexDefault))
}

// CreateIndexWithType creates an index of an explicit type on a column.
func (c *Container) CreateIndexWithType(ctx context.Context, columnName string, typ types.IndexType) error {
	return c.createIndex(ctx, types.IndexInfoByColumn(columnName, typ))
}

// CreateIndexFromInfo creates an index from a full specification,
// including an optional name. Two indexes are considered the same when
// column and type match, regardless of name.
func (c *Container) CreateIndexFromInfo(ctx context.Context, info types.IndexInfo) error {
	return c.createIndex(ctx, info)
}

func (c *Container) createIndex(ctx context.Context, spec types.IndexInfo) error {
	if err := c.commitBeforeSchemaChange(ctx); err != nil {
		return err
	}
	_, err := c.store.engine.CreateIndex(c.handle, spec)
	return err
}

// DropIndex drops the default-type index on a column. Dropping what does
// not exist is a no-op, including on columns whose type supports no
// default index.
func (c *Container) DropIndex(ctx context.Context, columnName string) error {
	_, info, ok := c.schema.ColumnByName(columnName)
	if !ok {
		// Let the engine report the unknown column.
		return c.dropIndex(ctx, types.IndexInfoByColumn(columnName, types.IndexDefault))
	}
	typ, ok := index.DefaultType(c.schema.ContainerType(), info.Type)
	if !ok {
		return nil
	}
	return c.dropIndex(ctx, types.IndexInfoByColumn(columnName, typ))
}

// DropIndexWithType drops the index of an explicit type on a column.
func (c *Container) DropIndexWithType(ctx context.Context, columnName string, typ types.IndexType) error {
	return c.dropIndex(ctx, types.IndexInfoByColumn(columnName, typ))
}

// DropIndexFromInfo drops every index matching the specification's set
// fields; unset fields match anything.
func (c *Container) DropIndexFromInfo(ctx context.Context, info types.IndexInfo) error {
	return c.dropIndex(ctx, info)
}

func (c *Container) dropIndex(ctx context.Context, spec types.IndexInfo) error {
	if err := c.commitBeforeSchemaChange(ctx); err != nil {
		return err
	}
	_, err := c.store.engine.DropIndex(c.handle, spec)
	return err
}

// CreateTrigger registers a trigger on the container. A trigger with the
// exact same name is replaced.
func (c *Container) CreateTrigger(ctx context.Context, info types.TriggerInfo) error {
	if err := c.commitBeforeSchemaChange(ctx); err != nil {
		return err
	}
	return c.store.engine.CreateTrigger(c.handle, info)
}

// DropTrigger removes a trigger by name. Missing names are a no-op.
func (c *Container) DropTrigger(ctx context.Context, name string) error {
	if err := c.commitBeforeSchemaChange(ctx); err != nil {
		return err
	}
	_, err := c.store.engine.DropTrigger(c.handle, name)
	return err
}

// Info returns the container's current definition including indexes and
// triggers.
func (c *Container) Info() (*types.ContainerInfo, error) {
	return c.store.engine.ContainerInfo(c.handle)
}

// UpdateLayout changes the container's column layout, keeping the key
// column. Triggers survive with their monitored-column filters pruned to
// the new layout; other sessions on the container go stale.
func (c *Container) UpdateLayout(ctx context.Context, columns []types.ColumnInfo) error {
	if err := c.commitBeforeSchemaChange(ctx); err != nil {
		return err
	}
	h, err := c.store.engine.UpdateLayout(c.handle, columns)
	if err != nil {
		return err
	}
	schema, err := c.store.engine.Schema(h)
	if err != nil {
		return err
	}
	c.handle = h
	c.schema = schema
	return nil
}

// commitBeforeSchemaChange commits an open transaction so the schema
// change does not interleave with uncommitted row work.
func (c *Container) commitBeforeSchemaChange(ctx context.Context) error {
	id, had, err := c.session.Commit()
	switch {
	case err == nil:
		if had {
			return c.store.engine.Commit(c.handle, id)
		}
		return nil
	case IsModeError(err):
		// Autocommit mode has nothing to commit.
		return nil
	default:
		return c.reap(err, id)
	}
}
