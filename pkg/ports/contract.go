package ports

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBlobStoreContract runs a suite of tests to verify that a BlobStore
// implementation adheres to the defined interface contract. Every adapter
// calls this from its own test file.
func RunBlobStoreContract(t *testing.T, store BlobStore) {
	ctx := context.Background()
	key := fmt.Sprintf("contract-%s", t.Name())

	t.Run("Put and Get", func(t *testing.T) {
		payload := []byte(`{"next_id":7}`)
		require.NoError(t, store.Put(ctx, key, payload), "Put should not return error")

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, payload, got)
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, []byte("v1")))
		require.NoError(t, store.Put(ctx, key, []byte("v2")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Get Returns Copy", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, []byte("stable")))

		first, err := store.Get(ctx, key)
		require.NoError(t, err)
		first[0] = 'X'

		second, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("stable"), second, "mutating a returned payload must not corrupt the store")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, []byte("doomed")))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound, "Get after Delete should return ErrNotFound")

		// Deleting again is a no-op, not an error.
		assert.NoError(t, store.Delete(ctx, key))
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		require.NoError(t, store.Put(ctx, id1, []byte("a")))
		require.NoError(t, store.Put(ctx, id2, []byte("b")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
