// Package blob abstracts the object-storage backend holding document
// contents. Each key operation is independently atomic; there is no
// multi-key transaction, which is why the storage coordinator orders its
// writes around the relational commit.
package blob

import "context"

// Store is a key-addressed blob store.
type Store interface {
	// Put writes body under key and returns the stored byte length.
	Put(ctx context.Context, key string, body []byte, contentType string) (int64, error)

	// Get returns the blob stored under key, or common.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob under key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
