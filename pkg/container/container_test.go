package container

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesserdb/tesser/internal/config"
	"github.com/tesserdb/tesser/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	store, err := Open(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func accountsInfo() *types.ContainerInfo {
	return types.NewContainerInfo("accounts", types.ContainerCollection, []types.ColumnInfo{
		types.NewColumnInfo("id", types.Long),
		types.NewColumnInfo("owner", types.String),
	}, true)
}

func accounts(t *testing.T, store *Store) *Container {
	t.Helper()
	c, err := store.PutContainer(accountsInfo())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func account(id int64, owner string) types.Row {
	return types.Row{types.NewLong(id), types.NewString(owner)}
}

func TestAutocommitRowLifecycle(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	ctx := t.Context()

	exists, err := c.Put(ctx, account(1, "x"))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = c.Put(ctx, account(1, "y"))
	require.NoError(t, err)
	assert.True(t, exists)

	row, found, err := c.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "y", row[1].AsString())

	removed, err := c.Remove(ctx, types.NewLong(2))
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = c.Remove(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err = c.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutAllRearmostKeyWins(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	ctx := t.Context()

	err := c.PutAll(ctx, []types.Row{
		account(1, "a"),
		account(2, "b"),
		account(1, "c"),
	})
	require.NoError(t, err)

	row, found, err := c.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "c", row[1].AsString())
}

func TestPutWithKeyOverridesKeyColumn(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	ctx := t.Context()

	_, err := c.PutWithKey(ctx, types.NewLong(7), account(1, "ada"))
	require.NoError(t, err)

	row, found, err := c.Get(ctx, types.NewLong(7))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(7), row[0].AsInt())

	_, found, err = c.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeylessContainer(t *testing.T) {
	store := testStore(t)
	info := types.NewContainerInfo("log", types.ContainerCollection, []types.ColumnInfo{
		types.NewColumnInfo("line", types.String),
	}, false)
	c, err := store.PutContainer(info)
	require.NoError(t, err)
	defer c.Close()
	ctx := t.Context()

	// Every put appends.
	_, err = c.Put(ctx, types.Row{types.NewString("one")})
	require.NoError(t, err)
	_, err = c.Put(ctx, types.Row{types.NewString("one")})
	require.NoError(t, err)

	rs, err := c.Query("SELECT *").Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Size())

	// Key addressing is rejected.
	_, _, err = c.Get(ctx, types.NewString("one"))
	assert.True(t, IsKeyNotSupported(err))
	_, err = c.PutWithKey(ctx, types.NewString("k"), types.Row{types.NewString("x")})
	assert.True(t, IsKeyNotSupported(err))
}

func TestCommitModeRules(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	ctx := t.Context()

	// Commit, abort and locked reads are rejected in autocommit mode.
	assert.True(t, IsModeError(c.Commit(ctx)))
	assert.True(t, IsModeError(c.Abort(ctx)))
	_, _, err := c.GetForUpdate(ctx, types.NewLong(1))
	assert.True(t, IsModeError(err))
}

func TestManualCommitVisibility(t *testing.T) {
	store := testStore(t)
	writer := accounts(t, store)
	reader, err := store.GetContainer("accounts")
	require.NoError(t, err)
	defer reader.Close()
	ctx := t.Context()

	require.NoError(t, writer.SetAutoCommit(ctx, false))
	_, err = writer.Put(ctx, account(1, "draft"))
	require.NoError(t, err)

	// The writer sees its own work, the reader does not.
	_, found, err := writer.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = reader.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, writer.Commit(ctx))
	_, found, err = reader.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestAbortDiscardsWork(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	ctx := t.Context()

	_, err := c.Put(ctx, account(1, "keep"))
	require.NoError(t, err)

	require.NoError(t, c.SetAutoCommit(ctx, false))
	_, err = c.Put(ctx, account(1, "scrap"))
	require.NoError(t, err)
	require.NoError(t, c.Abort(ctx))

	row, found, err := c.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "keep", row[1].AsString())
}

func TestSetAutoCommitImplicitlyCommits(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	reader, err := store.GetContainer("accounts")
	require.NoError(t, err)
	defer reader.Close()
	ctx := t.Context()

	require.NoError(t, c.SetAutoCommit(ctx, false))
	_, err = c.Put(ctx, account(1, "flushed"))
	require.NoError(t, err)

	require.NoError(t, c.SetAutoCommit(ctx, true))
	_, found, err := reader.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestUpdateLockBlocksSecondSession(t *testing.T) {
	store := testStore(t)
	holder := accounts(t, store)
	other, err := store.GetContainer("accounts")
	require.NoError(t, err)
	defer other.Close()
	ctx := t.Context()

	_, err = holder.Put(ctx, account(1, "v1"))
	require.NoError(t, err)

	require.NoError(t, holder.SetAutoCommit(ctx, false))
	_, found, err := holder.GetForUpdate(ctx, types.NewLong(1))
	require.NoError(t, err)
	require.True(t, found)

	done := make(chan error, 1)
	go func() {
		_, err := other.Put(ctx, account(1, "v2"))
		done <- err
	}()
	select {
	case err := <-done:
		t.Fatalf("second session was not blocked: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, holder.Commit(ctx))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second session never unblocked")
	}

	row, _, err := holder.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.Equal(t, "v2", row[1].AsString())
}

func TestTransactionTimeoutImpliesAbort(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Transaction.Timeout = 50 * time.Millisecond
	store, err := Open(t.Context(), cfg)
	require.NoError(t, err)
	defer store.Close()

	c, err := store.PutContainer(accountsInfo())
	require.NoError(t, err)
	defer c.Close()
	ctx := t.Context()

	require.NoError(t, c.SetAutoCommit(ctx, false))
	_, err = c.Put(ctx, account(1, "doomed"))
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	// The first operation after expiry reports the timeout; the work is
	// already rolled back and the session stays usable.
	_, _, err = c.Get(ctx, types.NewLong(1))
	assert.True(t, IsTimeout(err))

	_, found, err := c.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCloseIsTerminalAndAborts(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	reader, err := store.GetContainer("accounts")
	require.NoError(t, err)
	defer reader.Close()
	ctx := t.Context()

	require.NoError(t, c.SetAutoCommit(ctx, false))
	_, err = c.Put(ctx, account(1, "orphan"))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, _, err = c.Get(ctx, types.NewLong(1))
	assert.True(t, IsClosed(err))
	_, err = c.Type()
	assert.True(t, IsClosed(err))
	assert.True(t, IsClosed(c.Flush(ctx)))

	// The uncommitted row never became visible.
	_, found, err := reader.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDropContainerStalesSessions(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	ctx := t.Context()

	store.DropContainer("accounts")

	_, err := c.Put(ctx, account(1, "late"))
	assert.True(t, IsStaleState(err))

	// Dropping again is a no-op, and lookups report absence.
	store.DropContainer("accounts")
	gone, err := store.GetContainer("accounts")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestIndexFacade(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	ctx := t.Context()

	require.NoError(t, c.CreateIndex(ctx, "owner"))
	// Idempotent against the equivalent explicit request.
	require.NoError(t, c.CreateIndexWithType(ctx, "owner", types.IndexTree))

	// Naming the existing index is a conflict.
	err := c.CreateIndexFromInfo(ctx,
		types.IndexInfoByColumn("owner", types.IndexTree).WithName("byOwner"))
	assert.True(t, IsIndexConflict(err))

	info, err := c.Info()
	require.NoError(t, err)
	require.Len(t, info.Indexes(), 1)

	require.NoError(t, c.DropIndex(ctx, "owner"))
	info, err = c.Info()
	require.NoError(t, err)
	assert.Empty(t, info.Indexes())

	// Dropping again stays silent.
	require.NoError(t, c.DropIndexWithType(ctx, "owner", types.IndexTree))
}

func TestCreateIndexCommitsOpenTransaction(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	reader, err := store.GetContainer("accounts")
	require.NoError(t, err)
	defer reader.Close()
	ctx := t.Context()

	require.NoError(t, c.SetAutoCommit(ctx, false))
	_, err = c.Put(ctx, account(1, "pending"))
	require.NoError(t, err)

	require.NoError(t, c.CreateIndex(ctx, "owner"))

	// The open transaction was committed before the schema change.
	_, found, err := reader.Get(ctx, types.NewLong(1))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTriggerFacadeNameRules(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	ctx := t.Context()

	trig := types.TriggerInfo{
		Name:   "T1",
		Type:   types.TriggerREST,
		URI:    "http://hooks.example.com/notify",
		Events: []types.TriggerEvent{types.TriggerEventPut},
	}
	require.NoError(t, c.CreateTrigger(ctx, trig))

	variant := trig
	variant.Name = "t1"
	err := c.CreateTrigger(ctx, variant)
	assert.True(t, IsTriggerValidation(err))

	require.NoError(t, c.DropTrigger(ctx, "t1"))
	require.NoError(t, c.DropTrigger(ctx, "T1"))
}

func TestCreateRowAndType(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)

	typ, err := c.Type()
	require.NoError(t, err)
	assert.Equal(t, types.ContainerCollection, typ)

	row := c.CreateRow()
	require.Len(t, row, 2)
	assert.Equal(t, int64(0), row[0].AsInt())
	assert.Equal(t, "", row[1].AsString())
	assert.False(t, row[0].IsNull())
}

func TestBlobHandles(t *testing.T) {
	store := testStore(t)

	b := store.CreateBlob()
	_, err := b.Write([]byte("payload"))
	require.NoError(t, err)
	n, err := b.Length()
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	require.NoError(t, b.Free(t.Context()))
	_, err = b.Bytes()
	assert.True(t, IsBlobFreed(err))
}
