package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/aretw0/perennial/pkg/adapters/redis"
	"github.com/aretw0/perennial/pkg/ports"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newTestClient(t)

	store := redis.NewFromClient(client)
	ports.RunBlobStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newTestClient(t)

	// Create store with 1s TTL
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	key := "session-ttl"

	// 1. Save
	err := store.Put(ctx, key, []byte(`{"next_id":1}`))
	assert.NoError(t, err)

	// 2. Verify List (immediately)
	keys, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, keys, key)

	// 3. Fast forward time in miniredis so the value expires
	mr.FastForward(2 * time.Second)

	// 4. Verify Get (should fail)
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// 5. Verify List (lazily cleaned up)
	// Lazy cleanup scores against time.Now(), so wait past the TTL for
	// real before asserting the index entry is pruned.
	time.Sleep(1200 * time.Millisecond)

	keys, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newTestClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	key := "my-session"

	err := store.Put(ctx, key, []byte("payload"))
	assert.NoError(t, err)

	// Key should be "custom:app:my-session"
	exists := mr.Exists("custom:app:my-session")
	assert.True(t, exists, "Expected key with custom prefix to exist")

	// Index should be "custom:app:index"
	existsIndex := mr.Exists("custom:app:index")
	assert.True(t, existsIndex, "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, key)
}
