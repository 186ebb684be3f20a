package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesserdb/tesser/internal/txn"
	"github.com/tesserdb/tesser/pkg/types"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	ctx := t.Context()

	e, err := New(Options{Partitions: 16, SnapshotPath: dbPath})
	require.NoError(t, err)

	info := types.NewContainerInfo("metrics", types.ContainerTimeSeries, []types.ColumnInfo{
		types.NewColumnInfo("at", types.Timestamp),
		types.NewColumnInfo("value", types.Double),
		types.NewColumnInfo("tags", types.StringArray),
	}, true)
	require.NoError(t, info.SetDataAffinity("metrics"))
	h, err := e.PutContainer(info)
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tags, err := types.NewArray(types.StringArray,
		[]types.Value{types.NewString("host-1"), types.NewString("eu")})
	require.NoError(t, err)
	key := types.NewTimestamp(at)
	_, err = e.Put(ctx, h, txn.Nil, soon(), key, types.Row{
		key, types.NewDouble(0.75), tags,
	})
	require.NoError(t, err)
	_, err = e.CreateIndex(h, types.IndexInfoByColumn("value", types.IndexDefault))
	require.NoError(t, err)
	require.NoError(t, e.CreateTrigger(h, types.TriggerInfo{
		Name:   "alert",
		Type:   types.TriggerREST,
		URI:    "http://hooks.example.com/alert",
		Events: []types.TriggerEvent{types.TriggerEventPut},
	}))

	require.NoError(t, e.Flush(ctx, h))
	require.NoError(t, e.Close())

	// A fresh engine on the same path reloads the container.
	e2, err := New(Options{Partitions: 16, SnapshotPath: dbPath})
	require.NoError(t, err)
	defer e2.Close()

	reloaded, h2, ok := e2.GetContainer("metrics")
	require.True(t, ok)
	assert.Equal(t, "metrics", reloaded.DataAffinity())
	require.Len(t, reloaded.Indexes(), 1)
	assert.Equal(t, "value", reloaded.Indexes()[0].ColumnName)
	require.Len(t, reloaded.Triggers(), 1)
	assert.Equal(t, "alert", reloaded.Triggers()[0].Name)

	row, found, err := e2.Get(ctx, h2, txn.Nil, soon(), key, false)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, row[0].AsTime().Equal(at))
	assert.Equal(t, 0.75, row[1].AsFloat())
	arr := row[2].AsArray()
	require.Len(t, arr, 2)
	assert.Equal(t, "host-1", arr[0].AsString())
}

func TestSnapshotDropRemovesContainer(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	ctx := t.Context()

	e, err := New(Options{Partitions: 4, SnapshotPath: dbPath})
	require.NoError(t, err)

	h := usersContainer(t, e)
	key, row := userRow(1, "gone")
	_, err = e.Put(ctx, h, txn.Nil, soon(), key, row)
	require.NoError(t, err)
	require.NoError(t, e.Flush(ctx, h))

	require.True(t, e.DropContainer("users"))
	require.NoError(t, e.Close())

	e2, err := New(Options{Partitions: 4, SnapshotPath: dbPath})
	require.NoError(t, err)
	defer e2.Close()
	_, _, ok := e2.GetContainer("users")
	assert.False(t, ok)
}
