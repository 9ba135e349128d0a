package metadata

import "context"

// Repository is a durable key-value store for small client records, such as
// the persisted session subset.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
