package models

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/avoronov/filevault/internal/common"
)

// CachedBlob is previously fetched file content in a directly renderable
// form: an RFC 2397 data URI plus the content type reported by the server.
type CachedBlob struct {
	Content     string `json:"content"`
	ContentType string `json:"type"`
}

// BlobCacheKey returns the cache key for an owned file.
func BlobCacheKey(id int64) string {
	return fmt.Sprintf("file-%d", id)
}

// SharedBlobCacheKey returns the cache key for a shared-link file.
func SharedBlobCacheKey(shareID string) string {
	return "shared-file-" + shareID
}

// NewCachedBlob converts raw binary content into a CachedBlob. If the server
// did not report a content type, it is sniffed from the payload. An empty
// payload is a conversion failure: the caller must surface it and must not
// populate the cache.
func NewCachedBlob(content []byte, contentType string) (*CachedBlob, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("converting blob: %w", common.ErrEmptyPayload)
	}
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	uri := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(content)
	return &CachedBlob{Content: uri, ContentType: contentType}, nil
}

// Bytes decodes the data URI back into raw content.
func (b *CachedBlob) Bytes() ([]byte, error) {
	_, encoded, found := strings.Cut(b.Content, ";base64,")
	if !found {
		return nil, fmt.Errorf("decoding blob: not a base64 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding blob: %w", err)
	}
	return raw, nil
}
