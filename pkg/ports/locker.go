package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency
// control. The session manager uses it to serialize access to a session
// across multiple host replicas; within one process a local mutex already
// does that job.
type DistributedLocker interface {
	// Lock attempts to acquire a distributed lock for the given key
	// (typically a session ID). It blocks until the lock is acquired or
	// the context is canceled; ttl bounds how long a crashed holder can
	// wedge the key. Returns an UnlockFunc that MUST be called to release
	// the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
