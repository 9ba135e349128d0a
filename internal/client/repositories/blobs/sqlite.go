// Package blobs implements the durable blob cache on sqlite. Cached content
// is gzip-compressed at rest; the uncompressed size is tracked per entry so a
// byte cap with LRU eviction can bound on-device growth.
package blobs

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/avoronov/filevault/internal/client/models"
	"github.com/avoronov/filevault/internal/common"
	"github.com/avoronov/filevault/internal/dbx"
)

type SQLiteRepository struct {
	db       dbx.DBTX
	maxBytes int64

	// now is a test seam for recency stamps.
	now func() time.Time
}

// NewSQLiteRepository creates a blob cache with the given byte cap.
// maxBytes <= 0 disables eviction.
func NewSQLiteRepository(db dbx.DBTX, maxBytes int64) *SQLiteRepository {
	return &SQLiteRepository{db: db, maxBytes: maxBytes, now: time.Now}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*models.CachedBlob, error) {
	var compressed []byte
	var contentType string

	err := r.db.QueryRowContext(ctx,
		`SELECT content, content_type FROM blobs WHERE key = ?`, key,
	).Scan(&compressed, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob[%s]: %w", key, err)
	}

	content, err := gunzip(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress blob[%s]: %w", key, err)
	}

	// Refresh recency so eviction prefers entries nobody views.
	_, err = r.db.ExecContext(ctx,
		`UPDATE blobs SET last_used = ? WHERE key = ?`, r.now().UnixNano(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to touch blob[%s]: %w", key, err)
	}

	return &models.CachedBlob{Content: string(content), ContentType: contentType}, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, blob *models.CachedBlob) error {
	compressed, err := gzipBytes([]byte(blob.Content))
	if err != nil {
		return fmt.Errorf("failed to compress blob[%s]: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO blobs (key, content, content_type, size, last_used) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET content = excluded.content,
			content_type = excluded.content_type,
			size = excluded.size,
			last_used = excluded.last_used
	`, key, compressed, blob.ContentType, int64(len(blob.Content)), r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to put blob[%s]: %w", key, err)
	}

	return r.evict(ctx, key)
}

func (r *SQLiteRepository) TotalSize(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(size) FROM blobs`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum blob sizes: %w", err)
	}
	return total.Int64, nil
}

// evict drops least-recently-used entries until the cache fits the cap.
// The entry just written under keep is never evicted.
func (r *SQLiteRepository) evict(ctx context.Context, keep string) error {
	if r.maxBytes <= 0 {
		return nil
	}

	total, err := r.TotalSize(ctx)
	if err != nil {
		return err
	}
	if total <= r.maxBytes {
		return nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT key, size FROM blobs WHERE key != ? ORDER BY last_used ASC`, keep)
	if err != nil {
		return fmt.Errorf("failed to list eviction candidates: %w", err)
	}
	defer rows.Close()

	var victims []string
	for rows.Next() {
		var k string
		var size int64
		if err := rows.Scan(&k, &size); err != nil {
			return fmt.Errorf("failed to scan eviction candidate: %w", err)
		}
		victims = append(victims, k)
		total -= size
		if total <= r.maxBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate eviction candidates: %w", err)
	}
	// Release the read cursor before deleting: sqlite blocks writers while a
	// reader still holds the shared-cache table lock.
	_ = rows.Close()

	for _, k := range victims {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, k); err != nil {
			return fmt.Errorf("failed to evict blob[%s]: %w", k, err)
		}
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
