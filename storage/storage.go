package storage

import "context"

// Storage is the durable key/value capability the credential store and the
// session snapshot are written through. Clear on a missing key is a no-op.
type Storage interface {
	// Get returns the stored value and whether the key was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key; the write is visible to later Gets once Set returns
	Set(ctx context.Context, key, value string) error

	// Clear removes key
	Clear(ctx context.Context, key string) error
}
