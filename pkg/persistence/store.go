// Package persistence provides the typed checkpoint layer between a
// machine's state and a ports.BlobStore backend. It owns the JSON codec so
// that every backend stores the same bytes, and composes with middleware
// (encryption, compression) that rewrites those bytes in flight.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/perennial/pkg/ports"
)

// Store serializes states of type S as JSON payloads in a BlobStore.
type Store[S any] struct {
	blobs ports.BlobStore
}

// NewStore wraps a blob backend. Middleware from pkg/persistence/middleware
// is applied to the backend before it gets here, typically via
// middleware.Chain.
func NewStore[S any](blobs ports.BlobStore) *Store[S] {
	return &Store[S]{blobs: blobs}
}

// Save checkpoints state under key.
func (s *Store[S]) Save(ctx context.Context, key string, state *S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.blobs.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	return nil
}

// Load retrieves the state checkpointed under key.
// Returns ports.ErrNotFound if no checkpoint exists.
func (s *Store[S]) Load(ctx context.Context, key string) (*S, error) {
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	state := new(S)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

// Delete removes the checkpoint under key.
func (s *Store[S]) Delete(ctx context.Context, key string) error {
	return s.blobs.Delete(ctx, key)
}

// List returns all keys with a checkpoint.
func (s *Store[S]) List(ctx context.Context) ([]string, error) {
	return s.blobs.List(ctx)
}
