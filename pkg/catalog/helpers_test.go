package catalog_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-catalog/pkg/catalog"
	"github.com/tendant/simple-catalog/pkg/catalog/repo/memory"
)

const actor = "actor-1"

func ptr[T any](v T) *T { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock hands out strictly increasing timestamps so audit ordering is
// deterministic.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService(t *testing.T, repo catalog.Repository) catalog.Service {
	t.Helper()
	svc, err := catalog.New(
		catalog.WithRepository(repo),
		catalog.WithLogger(discardLogger()),
		catalog.WithClock(newFakeClock().Now),
		catalog.WithPasswordCost(bcrypt.MinCost),
	)
	require.NoError(t, err)
	return svc
}

func setup(t *testing.T) (catalog.Service, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	return newTestService(t, repo), repo
}

func createCategory(t *testing.T, svc catalog.Service, name string) *catalog.Category {
	t.Helper()
	c, err := svc.CreateCategory(context.Background(), catalog.CreateCategoryRequest{Name: name, ActorID: actor})
	require.NoError(t, err)
	return c
}

func createProduct(t *testing.T, svc catalog.Service, req catalog.CreateProductRequest) *catalog.Product {
	t.Helper()
	if req.ActorID == "" {
		req.ActorID = actor
	}
	p, err := svc.CreateProduct(context.Background(), req)
	require.NoError(t, err)
	return p
}

// faultyRepo wraps the memory repository and fails selected operations.
type faultyRepo struct {
	*memory.Repository
	patchErr  error
	appendErr error
}

func (r *faultyRepo) PatchProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*catalog.Product, error) {
	if r.patchErr != nil {
		return nil, r.patchErr
	}
	return r.Repository.PatchProduct(ctx, id, patch)
}

func (r *faultyRepo) AppendLog(ctx context.Context, entry *catalog.LogEntry) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	return r.Repository.AppendLog(ctx, entry)
}

// mockBlobStore is a testify mock of catalog.BlobStore.
type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Upload(ctx context.Context, reader io.Reader, params catalog.UploadParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockBlobStore) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectKey)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, objectKey string) error {
	return m.Called(ctx, objectKey).Error(0)
}

func (m *mockBlobStore) GetObjectMeta(ctx context.Context, objectKey string) (*catalog.ObjectMeta, error) {
	args := m.Called(ctx, objectKey)
	meta, _ := args.Get(0).(*catalog.ObjectMeta)
	return meta, args.Error(1)
}

func (m *mockBlobStore) PublicURL(objectKey string) string {
	return m.Called(objectKey).String(0)
}

func pngUpload() catalog.ImageUpload {
	return catalog.ImageUpload{Data: []byte("\x89PNG fake"), ContentType: "image/png", FileName: "cola.png"}
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
