// Package middleware provides composable wrappers around a ports.BlobStore
// that rewrite payloads on the way through: encryption at rest, payload
// compression. Middleware never interprets the state it carries.
package middleware

import "github.com/aretw0/perennial/pkg/ports"

// Middleware allows wrapping a BlobStore to add behavior.
type Middleware func(ports.BlobStore) ports.BlobStore

// Chain applies middlewares to store in argument order: the first
// middleware sees plaintext payloads and the last one talks to the backend.
func Chain(store ports.BlobStore, mws ...Middleware) ports.BlobStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
