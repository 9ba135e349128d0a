// Package services contains the application services of the filevault client:
// file operations backed by the blob cache, and the admin roster fetch.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avoronov/filevault/internal/client/api"
	"github.com/avoronov/filevault/internal/client/models"
	"github.com/avoronov/filevault/internal/client/repositories/blobs"
	"github.com/avoronov/filevault/internal/common"
	"github.com/avoronov/filevault/internal/filex"
	"github.com/avoronov/filevault/internal/logging"
)

// FileService performs file operations against the server, consulting the
// durable blob cache on the view path. A cache hit short-circuits the network
// fetch entirely; the cache is only ever overwritten by a successful new
// fetch under the same key.
type FileService struct {
	api   api.Client
	cache blobs.Repository
	log   logging.Logger
}

func NewFileService(apiClient api.Client, cache blobs.Repository, log logging.Logger) *FileService {
	return &FileService{api: apiClient, cache: cache, log: log.With("component", "files")}
}

// List fetches the full file snapshot. The previous snapshot is replaced
// wholesale; ordering is server-determined.
func (s *FileService) List(ctx context.Context) ([]models.FileRecord, error) {
	return s.api.ListFiles(ctx)
}

// View returns renderable content for an owned file, serving from the cache
// when possible. The second return value reports whether the cache was hit.
func (s *FileService) View(ctx context.Context, id int64) (*models.CachedBlob, bool, error) {
	return s.view(ctx, models.BlobCacheKey(id), func(ctx context.Context) ([]byte, string, error) {
		return s.api.GetFile(ctx, id)
	})
}

// ViewShared returns renderable content for a shared-link file.
func (s *FileService) ViewShared(ctx context.Context, shareID string) (*models.CachedBlob, bool, error) {
	return s.view(ctx, models.SharedBlobCacheKey(shareID), func(ctx context.Context) ([]byte, string, error) {
		return s.api.GetSharedFile(ctx, shareID)
	})
}

// view implements the cache-aside read path. Conversion failures surface to
// the caller and never populate the cache; cache write failures are logged
// but do not fail the view, matching a cache's advisory role.
func (s *FileService) view(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, string, error)) (*models.CachedBlob, bool, error) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		s.log.Debug(ctx, "cache hit", "key", key)
		return cached, true, nil
	}
	if !errors.Is(err, common.ErrCacheMiss) {
		// A broken cache read falls through to the network.
		s.log.Warn(ctx, "cache read failed", "key", key, "error", err)
	}

	content, contentType, err := fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	blob, err := models.NewCachedBlob(content, contentType)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Put(ctx, key, blob); err != nil {
		s.log.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
	return blob, false, nil
}

// Upload sends a local file as multipart form data.
func (s *FileService) Upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return s.api.UploadFile(ctx, filepath.Base(path), f)
}

// Delete removes a file on the server. The cache entry, if any, is left in
// place: entries are only overwritten, never invalidated.
func (s *FileService) Delete(ctx context.Context, id int64) error {
	return s.api.DeleteFile(ctx, id)
}

// Share returns the share id for a file; the server reuses an existing share
// if one exists. The shareable path is files/shared/<shareId>.
func (s *FileService) Share(ctx context.Context, id int64) (string, error) {
	return s.api.ShareFile(ctx, id)
}

// Download writes a file's content to a local path, serving from the cache
// when possible.
func (s *FileService) Download(ctx context.Context, id int64, dest string) error {
	blob, _, err := s.View(ctx, id)
	if err != nil {
		return err
	}

	raw, err := blob.Bytes()
	if err != nil {
		return err
	}

	if _, err := filex.EnsureParentDir(dest); err != nil {
		return err
	}
	if err := os.WriteFile(dest, raw, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}
