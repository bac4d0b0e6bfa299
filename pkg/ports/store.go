package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore implementations when a key has no
// stored payload.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines the interface for persisting checkpointed state as
// opaque byte payloads, keyed by session ID. Implementations must make Put
// atomic per key: a concurrent Get sees either the previous payload or the
// new one, never a torn write.
//
// The payload is opaque on purpose. Typed encoding lives in
// pkg/persistence, and middleware (encryption, say) may rewrite the bytes
// without the backend knowing.
type BlobStore interface {
	// Put stores data under key, replacing any previous payload.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the payload stored under key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the payload stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys with a stored payload.
	List(ctx context.Context) ([]string, error)
}
