package blobs

import (
	"context"

	"github.com/avoronov/filevault/internal/client/models"
)

// Repository is the durable on-device blob cache. A Get hit means the caller
// can skip the network fetch entirely; entries are only ever overwritten by a
// successful new fetch under the same key (last writer wins).
type Repository interface {
	// Get returns the cached blob for key, or common.ErrCacheMiss.
	// A hit refreshes the entry's recency.
	Get(ctx context.Context, key string) (*models.CachedBlob, error)

	// Put stores the blob under key, evicting least-recently-used entries
	// if the configured byte cap is exceeded.
	Put(ctx context.Context, key string, blob *models.CachedBlob) error

	// TotalSize reports the sum of uncompressed entry sizes in bytes.
	TotalSize(ctx context.Context) (int64, error)
}
