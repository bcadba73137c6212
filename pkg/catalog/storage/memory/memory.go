package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

// DefaultBaseURL prefixes the public URL of objects kept in memory.
const DefaultBaseURL = "memory://"

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the catalog.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return NewWithBaseURL(DefaultBaseURL)
}

// NewWithBaseURL creates an in-memory backend whose public URLs start with baseURL.
func NewWithBaseURL(baseURL string) *Backend {
	return &Backend{
		objects: make(map[string]object),
		baseURL: baseURL,
	}
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*catalog.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, catalog.ErrObjectNotFound
	}

	sum := md5.Sum(obj.data)
	return &catalog.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		UpdatedAt:   obj.updatedAt,
		ETag:        hex.EncodeToString(sum[:]),
	}, nil
}

// Upload stores content under params.ObjectKey
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params catalog.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = object{data: data, mimeType: mimeType, updatedAt: time.Now().UTC()}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, catalog.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return catalog.ErrObjectNotFound
	}

	delete(b.objects, objectKey)
	return nil
}

// PublicURL returns the base URL joined with the key
func (b *Backend) PublicURL(objectKey string) string {
	if strings.HasSuffix(b.baseURL, "/") {
		return b.baseURL + objectKey
	}
	return b.baseURL + "/" + objectKey
}

// Len returns the number of stored objects.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

var _ catalog.BlobStore = (*Backend)(nil)
