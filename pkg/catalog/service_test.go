package catalog_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-catalog/pkg/catalog"
	"github.com/tendant/simple-catalog/pkg/catalog/repo/memory"
)

func TestNew_RequiresRepository(t *testing.T) {
	_, err := catalog.New()
	assert.Error(t, err)
}

func TestCreateProduct(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	bev := createCategory(t, svc, "Beverages")

	product := createProduct(t, svc, catalog.CreateProductRequest{
		Name:       "  Cola ",
		Price:      1.5,
		Quantity:   10,
		CategoryID: bev.ID,
	})

	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Cola", product.Name)
	assert.Equal(t, catalog.ProductStatusActive, product.Status)
	assert.False(t, product.CreatedAt.IsZero())

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product, got)

	history, err := svc.History(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, catalog.ActionCreate, history[0].Action)
	assert.Equal(t, catalog.EntityProduct, history[0].Entity)
	assert.Equal(t, actor, history[0].ActorID)
}

func TestCreateProduct_WithoutCategory(t *testing.T) {
	svc, _ := setup(t)
	product := createProduct(t, svc, catalog.CreateProductRequest{Name: "Loose item", Price: 0, Quantity: 0})
	assert.Empty(t, product.CategoryID)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   catalog.CreateProductRequest
		field string
	}{
		{"missing actor", catalog.CreateProductRequest{Name: "x", Price: 1}, "actorId"},
		{"empty name", catalog.CreateProductRequest{Name: "   ", Price: 1, ActorID: actor}, catalog.FieldName},
		{"negative price", catalog.CreateProductRequest{Name: "x", Price: -1, ActorID: actor}, catalog.FieldPrice},
		{"NaN price", catalog.CreateProductRequest{Name: "x", Price: math.NaN(), ActorID: actor}, catalog.FieldPrice},
		{"infinite price", catalog.CreateProductRequest{Name: "x", Price: math.Inf(1), ActorID: actor}, catalog.FieldPrice},
		{"negative quantity", catalog.CreateProductRequest{Name: "x", Price: 1, Quantity: -1, ActorID: actor}, catalog.FieldQuantity},
		{"unknown category", catalog.CreateProductRequest{Name: "x", Price: 1, CategoryID: "nope", ActorID: actor}, catalog.FieldCategoryID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.req)
			require.ErrorIs(t, err, catalog.ErrValidation)

			var verr *catalog.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// Nothing was persisted or logged
	all, err := catalog.Collect(repo.ScanProducts(ctx, catalog.ProductQuery{Scope: catalog.ScopeAll}))
	require.NoError(t, err)
	assert.Empty(t, all)

	logs, err := catalog.Collect(repo.ScanLogs(ctx, catalog.LogQuery{}))
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCreateProduct_InvalidCategoryMessage(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.CreateProduct(context.Background(), catalog.CreateProductRequest{
		Name: "Cola", Price: 1, CategoryID: "missing", ActorID: actor,
	})
	require.Error(t, err)
	assert.Equal(t, "category not found", err.Error())
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	bev := createCategory(t, svc, "Beverages")
	snacks := createCategory(t, svc, "Snacks")
	original := createProduct(t, svc, catalog.CreateProductRequest{Name: "Cola", Price: 1.5, Quantity: 10, CategoryID: bev.ID})

	t.Run("RoundTrip", func(t *testing.T) {
		updated, err := svc.UpdateProduct(ctx, catalog.UpdateProductRequest{
			ID:      original.ID,
			Patch:   catalog.ProductPatch{Price: ptr(2.0), CategoryID: ptr(snacks.ID)},
			ActorID: actor,
		})
		require.NoError(t, err)

		got, err := svc.GetProduct(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)

		expected := *original
		expected.Price = 2.0
		expected.CategoryID = snacks.ID
		assert.Equal(t, &expected, got)
		assert.True(t, original.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("EmptyPatchStillAudited", func(t *testing.T) {
		before, err := svc.History(ctx, original.ID)
		require.NoError(t, err)
		current, err := svc.GetProduct(ctx, original.ID)
		require.NoError(t, err)

		updated, err := svc.UpdateProduct(ctx, catalog.UpdateProductRequest{ID: original.ID, ActorID: actor})
		require.NoError(t, err)
		assert.Equal(t, current, updated)

		after, err := svc.History(ctx, original.ID)
		require.NoError(t, err)
		require.Len(t, after, len(before)+1)
		assert.Equal(t, catalog.ActionUpdate, after[0].Action)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		_, err := svc.UpdateProduct(ctx, catalog.UpdateProductRequest{
			ID: original.ID, Patch: catalog.ProductPatch{CategoryID: ptr("missing")}, ActorID: actor,
		})
		assert.ErrorIs(t, err, catalog.ErrValidation)
	})

	t.Run("ClearCategory", func(t *testing.T) {
		updated, err := svc.UpdateProduct(ctx, catalog.UpdateProductRequest{
			ID: original.ID, Patch: catalog.ProductPatch{CategoryID: ptr("")}, ActorID: actor,
		})
		require.NoError(t, err)
		assert.Empty(t, updated.CategoryID)
	})

	t.Run("InvalidFields", func(t *testing.T) {
		for _, patch := range []catalog.ProductPatch{
			{Name: ptr(" ")},
			{Price: ptr(-0.01)},
			{Quantity: ptr(-3)},
		} {
			_, err := svc.UpdateProduct(ctx, catalog.UpdateProductRequest{ID: original.ID, Patch: patch, ActorID: actor})
			assert.ErrorIs(t, err, catalog.ErrValidation)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := svc.UpdateProduct(ctx, catalog.UpdateProductRequest{ID: "missing", Patch: catalog.ProductPatch{Name: ptr("x")}, ActorID: actor})
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
}

func TestDeleteProduct(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	product := createProduct(t, svc, catalog.CreateProductRequest{Name: "Cola", Price: 1.5, Quantity: 10})

	deleted, err := svc.DeleteProduct(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	assert.NotNil(t, deleted.DeletedAt)

	_, err = svc.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = svc.UpdateProduct(ctx, catalog.UpdateProductRequest{ID: product.ID, Patch: catalog.ProductPatch{Name: ptr("x")}, ActorID: actor})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = svc.DeleteProduct(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	// The record is retained
	stored, err := repo.GetProduct(ctx, product.ID, catalog.ScopeDeleted)
	require.NoError(t, err)
	assert.Equal(t, "Cola", stored.Name)

	history, err := svc.History(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, catalog.ActionDelete, history[0].Action)
	assert.Equal(t, catalog.ActionCreate, history[1].Action)
}

func TestPurgeProduct(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	product := createProduct(t, svc, catalog.CreateProductRequest{Name: "Cola", Price: 1.5})

	_, err := svc.DeleteProduct(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	require.NoError(t, err)

	purged, err := svc.PurgeProduct(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, product.ID, purged.ID)

	_, err = repo.GetProduct(ctx, product.ID, catalog.ScopeAll)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = svc.PurgeProduct(ctx, catalog.DeleteProductRequest{ID: product.ID, ActorID: actor})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAuditFailureIsSurfaced(t *testing.T) {
	repo := &faultyRepo{Repository: memory.New()}
	svc := newTestService(t, repo)
	ctx := context.Background()

	repo.appendErr = &catalog.StorageError{Collection: "logs", Op: "append", Err: errors.New("disk full")}
	_, err := svc.CreateCategory(ctx, catalog.CreateCategoryRequest{Name: "Beverages", ActorID: actor})
	require.ErrorIs(t, err, catalog.ErrStorage)

	// The mutation itself committed
	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}
