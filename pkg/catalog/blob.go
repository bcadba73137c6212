package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tendant/simple-catalog/pkg/catalog/objectkey"
)

// DefaultMaxImageBytes is the largest accepted product image.
const DefaultMaxImageBytes = 5 << 20

// DefaultImageTypes lists the accepted image content types.
var DefaultImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// BlobManager stores and removes product images. It knows nothing about
// products; callers sequence it around metadata writes.
type BlobManager struct {
	store        BlobStore
	keys         objectkey.Generator
	logger       *slog.Logger
	maxBytes     int
	allowedTypes map[string]bool
}

// BlobOption configures a BlobManager
type BlobOption func(*BlobManager)

// WithKeyGenerator sets the object key generator
func WithKeyGenerator(g objectkey.Generator) BlobOption {
	return func(m *BlobManager) {
		m.keys = g
	}
}

// WithBlobLogger sets the logger used for cleanup warnings
func WithBlobLogger(logger *slog.Logger) BlobOption {
	return func(m *BlobManager) {
		m.logger = logger
	}
}

// WithMaxImageBytes sets the upload size limit
func WithMaxImageBytes(n int) BlobOption {
	return func(m *BlobManager) {
		m.maxBytes = n
	}
}

// WithAllowedTypes replaces the content type allowlist
func WithAllowedTypes(types ...string) BlobOption {
	return func(m *BlobManager) {
		m.allowedTypes = make(map[string]bool, len(types))
		for _, t := range types {
			m.allowedTypes[strings.ToLower(t)] = true
		}
	}
}

// NewBlobManager creates a BlobManager over store.
func NewBlobManager(store BlobStore, options ...BlobOption) *BlobManager {
	m := &BlobManager{
		store:    store,
		maxBytes: DefaultMaxImageBytes,
	}
	WithAllowedTypes(DefaultImageTypes...)(m)

	for _, option := range options {
		option(m)
	}

	if m.keys == nil {
		m.keys = objectkey.NewTimestampGenerator(objectkey.DefaultPrefix)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Store validates and uploads an image under a freshly generated key and
// returns its reference.
func (m *BlobManager) Store(ctx context.Context, upload ImageUpload) (ImageRef, error) {
	contentType := normalizeContentType(upload.ContentType)
	if !m.allowedTypes[contentType] {
		return ImageRef{}, &ValidationError{Field: "image", Message: fmt.Sprintf("unsupported image type %q", upload.ContentType)}
	}
	if len(upload.Data) == 0 {
		return ImageRef{}, &ValidationError{Field: "image", Message: "image is empty"}
	}
	if len(upload.Data) > m.maxBytes {
		return ImageRef{}, &ValidationError{Field: "image", Message: fmt.Sprintf("image exceeds %d bytes", m.maxBytes)}
	}

	key := m.keys.GenerateKey(upload.FileName)
	err := m.store.Upload(ctx, bytes.NewReader(upload.Data), UploadParams{
		ObjectKey: key,
		MimeType:  contentType,
	})
	if err != nil {
		m.logger.Error("failed to upload image", "key", key, "error", err)
		return ImageRef{}, &BlobError{Key: key, Op: "upload", Err: err}
	}

	m.logger.Debug("image stored", "key", key, "size", len(upload.Data))
	return ImageRef{URL: m.store.PublicURL(key), Key: key}, nil
}

// Remove deletes the object at key. It never fails: a blob left behind is an
// orphan, which is tolerated, so errors are only logged.
func (m *BlobManager) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Warn("failed to remove image", "key", key, "error", err)
		return
	}
	m.logger.Debug("image removed", "key", key)
}

// normalizeContentType strips parameters and lowercases a MIME type.
func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
