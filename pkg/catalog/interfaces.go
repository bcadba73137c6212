package catalog

import (
	"context"
	"io"
	"iter"
)

// Repository defines the interface for catalog persistence over a schemaless
// key-addressed store. Scan methods return lazy, one-shot, finite sequences
// with no ordering guarantee; the sequence yields a non-nil error at most once
// and then stops. Stores without native indexes pay O(collection size) per scan.
//
// Implementations must be safe for concurrent use and must not retry: any I/O
// failure is returned as a *StorageError.
type Repository interface {
	// Product operations
	GetProduct(ctx context.Context, id string, scope StatusScope) (*Product, error)
	// PutProduct inserts or fully replaces a product. A product written for the
	// first time is stamped with CreatedAt (if zero) and ProductStatusActive.
	PutProduct(ctx context.Context, product *Product) error
	// PatchProduct applies patch to an active product and returns the
	// post-update record. An empty patch returns (nil, nil).
	PatchProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error)
	SoftDeleteProduct(ctx context.Context, id string) (*Product, error)
	HardDeleteProduct(ctx context.Context, id string) error
	ScanProducts(ctx context.Context, query ProductQuery) iter.Seq2[*Product, error]

	// Category operations
	GetCategory(ctx context.Context, id string) (*Category, error)
	PutCategory(ctx context.Context, category *Category) error
	PatchCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ScanCategories(ctx context.Context, query CategoryQuery) iter.Seq2[*Category, error]

	// User operations
	GetUser(ctx context.Context, id string) (*User, error)
	// CreateUser writes user only if no user with the same username exists,
	// returning a *ConflictError otherwise.
	CreateUser(ctx context.Context, user *User) error
	PatchUser(ctx context.Context, id string, patch UserPatch) (*User, error)
	DeleteUser(ctx context.Context, id string) error
	ScanUsers(ctx context.Context, query UserQuery) iter.Seq2[*User, error]

	// Audit log operations. There is no update or delete.
	AppendLog(ctx context.Context, entry *LogEntry) error
	// ScanLogs yields matching entries in append order, unlike the other scans.
	ScanLogs(ctx context.Context, query LogQuery) iter.Seq2[*LogEntry, error]
}

// BlobStore defines the interface for image storage backends
type BlobStore interface {
	// Upload uploads content under params.ObjectKey
	Upload(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// PublicURL returns the resolvable URL for an object key. It is a pure
	// function of the backend configuration and the key.
	PublicURL(objectKey string) string
}

// Collect drains a scan sequence into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := []T{}
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
