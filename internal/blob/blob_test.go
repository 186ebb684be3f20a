package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/internal/storage"
)

func testStore(t *testing.T, spillThreshold int) *Store {
	t.Helper()
	objects, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewStore(objects, "blobs", spillThreshold)
}

func TestStreamAndRangeWrites(t *testing.T) {
	b := testStore(t, 1<<20).NewBlob()

	n, err := b.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, err = b.Write([]byte("world"))
	require.NoError(t, err)

	length, err := b.Length()
	require.NoError(t, err)
	assert.Equal(t, int64(11), length)

	// Range write inside the payload.
	_, err = b.WriteAt([]byte("HELLO"), 0)
	require.NoError(t, err)

	// Range write past the end grows with zero fill.
	_, err = b.WriteAt([]byte("!"), 12)
	require.NoError(t, err)

	data, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLO world\x00!"), data)

	_, err = b.WriteAt([]byte("x"), -1)
	assert.Error(t, err)
}

func TestBytesReturnsCopy(t *testing.T) {
	b := testStore(t, 1<<20).NewBlobFrom([]byte{1, 2, 3})
	data, err := b.Bytes()
	require.NoError(t, err)
	data[0] = 9

	again, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again)
}

func TestFreeIsTerminal(t *testing.T) {
	ctx := t.Context()
	b := testStore(t, 1<<20).NewBlobFrom([]byte("payload"))

	require.NoError(t, b.Free(ctx))

	_, err := b.Length()
	assert.True(t, errors.HasCode(err, errors.CodeBlobFreed))
	_, err = b.Bytes()
	assert.True(t, errors.HasCode(err, errors.CodeBlobFreed))
	_, err = b.Write([]byte("x"))
	assert.True(t, errors.HasCode(err, errors.CodeBlobFreed))
	assert.True(t, errors.HasCode(b.Free(ctx), errors.CodeBlobFreed))
}

func TestSpillAndLoad(t *testing.T) {
	ctx := t.Context()
	store := testStore(t, 4)

	payload := []byte("a payload comfortably over the threshold")
	b := store.NewBlobFrom(payload)
	require.NoError(t, b.Spill(ctx))

	// The spilled object is present under the store prefix.
	ok, err := store.objects.Exists(ctx, store.objectPath(b.ID()))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Load(ctx))
	data, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// Free removes the spilled object.
	require.NoError(t, b.Free(ctx))
	ok, err = store.objects.Exists(ctx, store.objectPath(b.ID()))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSmallPayloadStaysInMemory(t *testing.T) {
	ctx := t.Context()
	store := testStore(t, 1024)

	b := store.NewBlobFrom([]byte("tiny"))
	require.NoError(t, b.Spill(ctx))

	ok, err := store.objects.Exists(ctx, store.objectPath(b.ID()))
	require.NoError(t, err)
	assert.False(t, ok)
}
