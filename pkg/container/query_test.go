package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesserdb/tesser/pkg/types"
)

func seedAccounts(t *testing.T, c *Container) {
	t.Helper()
	err := c.PutAll(t.Context(), []types.Row{
		account(1, "ada"),
		account(2, "bob"),
		account(3, "cyd"),
	})
	require.NoError(t, err)
}

func TestQueryFetch(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	seedAccounts(t, c)

	rs, err := c.Query("SELECT * WHERE id >= 2 ORDER BY id DESC").Fetch(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Size())

	var owners []string
	for rs.HasNext() {
		row, err := rs.Next()
		require.NoError(t, err)
		owners = append(owners, row[1].AsString())
	}
	assert.Equal(t, []string{"cyd", "bob"}, owners)

	_, err = rs.Next()
	assert.Error(t, err)
}

func TestQueryParseErrorSurfacesAtFetch(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)

	// Building the query never fails; the bad statement is reported by
	// the fetch.
	q := c.Query("SELECT * WHERE nosuch = 1")
	require.NotNil(t, q)
	_, err := q.Fetch(t.Context())
	assert.True(t, IsParseError(err))

	_, err = c.Query("DELETE FROM accounts").Fetch(t.Context())
	assert.True(t, IsParseError(err))
}

func TestQuerySeesOwnUncommittedWrites(t *testing.T) {
	store := testStore(t)
	writer := accounts(t, store)
	reader, err := store.GetContainer("accounts")
	require.NoError(t, err)
	defer reader.Close()
	ctx := t.Context()

	require.NoError(t, writer.SetAutoCommit(ctx, false))
	_, err = writer.Put(ctx, account(1, "draft"))
	require.NoError(t, err)

	rs, err := writer.Query("SELECT *").Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Size())

	rs, err = reader.Query("SELECT *").Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Size())

	require.NoError(t, writer.Commit(ctx))
}

func TestQueryLimitOffset(t *testing.T) {
	store := testStore(t)
	c := accounts(t, store)
	seedAccounts(t, c)

	rs, err := c.Query("SELECT * ORDER BY id LIMIT 1 OFFSET 1").Fetch(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, rs.Size())
	row, err := rs.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2), row[0].AsInt())
}
