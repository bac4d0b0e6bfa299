/*
Package session serializes access to sessions.

Within one process a reference-counted mutex per session id keeps concurrent
handlers from interleaving a read-modify-write. With a distributed locker
configured, the same guarantee extends across host replicas sharing one
store.
*/
package session
