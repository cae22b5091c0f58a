package storage

import "context"

// KV is a key-value slot holding serialized blobs.
// Read reports ok=false for a key that was never written or was deleted.
type KV interface {
	Read(ctx context.Context, key string) (value []byte, ok bool, err error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
