// Package storage provides the durable key-value service behind the
// persistence adapter: get/set by namespaced key plus a change-notification
// feed so concurrent observers of the same conversation converge.
//
// Three backends are provided: an in-memory store (tests, ephemeral runs),
// BadgerDB (default on-disk store; its Subscribe API supplies the change
// feed across goroutines and processes sharing the DB), and SQLite (single
// file, change feed via low-frequency polling).
package storage

import "context"

// Event is one change notification: the key that changed and its new value.
// A nil Value means the key was deleted.
type Event struct {
	Key   string
	Value []byte
}

// Store is the durable key-value service. Keys are namespaced strings of
// the form "<namespace>:<origin>:<conversationId>". Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent; absence is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the value for key, replacing any prior value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix, in unspecified order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Watch returns a channel of change events for keys under prefix. The
	// channel is closed when ctx is cancelled or the store is closed.
	// Slow consumers may miss events; the feed is a hint to re-read, not a
	// replicated log.
	Watch(ctx context.Context, prefix string) (<-chan Event, error)

	// Close releases the store's resources.
	Close() error
}
