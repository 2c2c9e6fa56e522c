package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("key not found")

// Store defines the station-local persistence operations following hexagonal
// architecture. This is a port that can be implemented by different providers
// (Redis, BoltDB, etc.).
//
// Records are durable for the life of the station, not cached: every write
// must land synchronously and completely before the call returns, because a
// crash between a carrier accepting a booking and the ledger update is the
// single most damaging failure mode (double booking on restart).
type Store interface {
	// Get retrieves a value by key. Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under the given key with no expiration.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a value by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys matching the given glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
