package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-catalog/pkg/catalog"
	"github.com/tendant/simple-catalog/pkg/catalog/repo/memory"
	memorystorage "github.com/tendant/simple-catalog/pkg/catalog/storage/memory"
)

func newMockedWorkflow(t *testing.T, repo catalog.Repository) (catalog.Service, *mockBlobStore, *catalog.ImageWorkflow) {
	t.Helper()
	svc := newTestService(t, repo)
	store := &mockBlobStore{}
	store.On("Upload", mock.Anything, mock.Anything).Return(nil)
	store.On("PublicURL", mock.Anything).Return("https://img.example.com/new")
	blobs := catalog.NewBlobManager(store, catalog.WithBlobLogger(discardLogger()))
	return svc, store, catalog.NewImageWorkflow(svc, blobs)
}

func TestUpdateProductWithImage_RemovesOldKeyOnce(t *testing.T) {
	ctx := context.Background()
	svc, store, wf := newMockedWorkflow(t, memory.New())
	store.On("Delete", mock.Anything, "products/old.png").Return(nil)

	product := createProduct(t, svc, catalog.CreateProductRequest{
		Name:  "Cola",
		Price: 1.5,
		Image: catalog.ImageRef{URL: "https://img.example.com/old", Key: "products/old.png"},
	})

	updated, err := wf.UpdateProductWithImage(ctx, catalog.UpdateProductRequest{ID: product.ID, ActorID: actor}, pngUpload())
	require.NoError(t, err)
	assert.NotEqual(t, "products/old.png", updated.Image.Key)
	assert.Equal(t, "https://img.example.com/new", updated.Image.URL)

	store.AssertNumberOfCalls(t, "Upload", 1)
	store.AssertNumberOfCalls(t, "Delete", 1)
	store.AssertCalled(t, "Delete", mock.Anything, "products/old.png")
}

func TestUpdateProductWithImage_PatchFailureKeepsOldImage(t *testing.T) {
	ctx := context.Background()
	repo := &faultyRepo{Repository: memory.New()}
	svc, store, wf := newMockedWorkflow(t, repo)

	product := createProduct(t, svc, catalog.CreateProductRequest{
		Name:  "Cola",
		Price: 1.5,
		Image: catalog.ImageRef{URL: "https://img.example.com/old", Key: "products/old.png"},
	})

	repo.patchErr = &catalog.StorageError{Collection: "products", Key: product.ID, Op: "patch", Err: errors.New("timeout")}
	_, err := wf.UpdateProductWithImage(ctx, catalog.UpdateProductRequest{ID: product.ID, ActorID: actor}, pngUpload())
	require.ErrorIs(t, err, catalog.ErrStorage)

	store.AssertNumberOfCalls(t, "Upload", 1)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "products/old.png", got.Image.Key)
}

func TestUpdateProductWithImage_InvalidPatchUploadsNothing(t *testing.T) {
	ctx := context.Background()
	svc, store, wf := newMockedWorkflow(t, memory.New())

	product := createProduct(t, svc, catalog.CreateProductRequest{
		Name:  "Cola",
		Price: 1.5,
		Image: catalog.ImageRef{URL: "u", Key: "products/old.png"},
	})

	tests := []struct {
		name string
		req  catalog.UpdateProductRequest
	}{
		{"negative price", catalog.UpdateProductRequest{ID: product.ID, Patch: catalog.ProductPatch{Price: ptr(-1.0)}, ActorID: actor}},
		{"blank name", catalog.UpdateProductRequest{ID: product.ID, Patch: catalog.ProductPatch{Name: ptr("   ")}, ActorID: actor}},
		{"negative quantity", catalog.UpdateProductRequest{ID: product.ID, Patch: catalog.ProductPatch{Quantity: ptr(-3)}, ActorID: actor}},
		{"missing actor", catalog.UpdateProductRequest{ID: product.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wf.UpdateProductWithImage(ctx, tt.req, pngUpload())
			require.ErrorIs(t, err, catalog.ErrValidation)
		})
	}

	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "products/old.png", got.Image.Key)
}

func TestUpdateProductWithImage_MissingProductUploadsNothing(t *testing.T) {
	_, store, wf := newMockedWorkflow(t, memory.New())

	_, err := wf.UpdateProductWithImage(context.Background(), catalog.UpdateProductRequest{ID: "missing", ActorID: actor}, pngUpload())
	require.ErrorIs(t, err, catalog.ErrNotFound)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUpdateProductWithImage_NoPreviousImage(t *testing.T) {
	svc, store, wf := newMockedWorkflow(t, memory.New())
	product := createProduct(t, svc, catalog.CreateProductRequest{Name: "Cola", Price: 1.5})

	_, err := wf.UpdateProductWithImage(context.Background(), catalog.UpdateProductRequest{ID: product.ID, ActorID: actor}, pngUpload())
	require.NoError(t, err)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCreateProductWithImage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New())
	store := memorystorage.New()
	wf := catalog.NewImageWorkflow(svc, catalog.NewBlobManager(store, catalog.WithBlobLogger(discardLogger())))

	product, err := wf.CreateProductWithImage(ctx, catalog.CreateProductRequest{Name: "Cola", Price: 1.5, ActorID: actor}, pngUpload())
	require.NoError(t, err)
	assert.NotEmpty(t, product.Image.Key)
	assert.Equal(t, store.PublicURL(product.Image.Key), product.Image.URL)

	_, err = store.GetObjectMeta(ctx, product.Image.Key)
	assert.NoError(t, err)

	// A failed create leaves the upload behind as an orphan
	_, err = wf.CreateProductWithImage(ctx, catalog.CreateProductRequest{Name: "Bad", Price: 1, CategoryID: "missing", ActorID: actor}, pngUpload())
	require.ErrorIs(t, err, catalog.ErrValidation)
	assert.Equal(t, 2, store.Len())

	// Invalid images never reach the store
	_, err = wf.CreateProductWithImage(ctx, catalog.CreateProductRequest{Name: "Doc", Price: 1, ActorID: actor},
		catalog.ImageUpload{Data: []byte("%PDF"), ContentType: "application/pdf", FileName: "doc.pdf"})
	require.ErrorIs(t, err, catalog.ErrValidation)
	assert.Equal(t, 2, store.Len())
}

func TestDeleteProductWithImage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New())
	store := memorystorage.New()
	wf := catalog.NewImageWorkflow(svc, catalog.NewBlobManager(store, catalog.WithBlobLogger(discardLogger())))

	product, err := wf.CreateProductWithImage(ctx, catalog.CreateProductRequest{Name: "Cola", Price: 1.5, ActorID: actor}, pngUpload())
	require.NoError(t, err)

	deleted, err := wf.DeleteProductWithImage(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	assert.Equal(t, 0, store.Len())

	_, err = wf.DeleteProductWithImage(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeleteProductWithImage_CleanupFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	svc, store, wf := newMockedWorkflow(t, memory.New())
	store.On("Delete", mock.Anything, "products/old.png").Return(errors.New("access denied"))

	product := createProduct(t, svc, catalog.CreateProductRequest{
		Name: "Cola", Price: 1.5, Image: catalog.ImageRef{URL: "u", Key: "products/old.png"},
	})

	_, err := wf.DeleteProductWithImage(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	require.NoError(t, err)
	store.AssertNumberOfCalls(t, "Delete", 1)

	_, err = svc.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestPurgeProductWithImage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New())
	store := memorystorage.New()
	wf := catalog.NewImageWorkflow(svc, catalog.NewBlobManager(store, catalog.WithBlobLogger(discardLogger())))

	product, err := wf.CreateProductWithImage(ctx, catalog.CreateProductRequest{Name: "Cola", Price: 1.5, ActorID: actor}, pngUpload())
	require.NoError(t, err)

	purged, err := wf.PurgeProductWithImage(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, product.ID, purged.ID)
	assert.Equal(t, 0, store.Len())
}
