package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

func TestInventoryStatusFor(t *testing.T) {
	tests := []struct {
		quantity int
		want     catalog.InventoryStatus
	}{
		{0, catalog.InventoryOutOfStock},
		{1, catalog.InventoryLowStock},
		{4, catalog.InventoryLowStock},
		{5, catalog.InventoryInStock},
		{100, catalog.InventoryInStock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, catalog.InventoryStatusFor(tt.quantity), "quantity %d", tt.quantity)
	}

	p := &catalog.Product{Quantity: 3}
	assert.Equal(t, catalog.InventoryLowStock, p.InventoryStatus())
}

func names(products []*catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestListProducts(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	bev := createCategory(t, svc, "Beverages")
	snacks := createCategory(t, svc, "Snacks")

	createProduct(t, svc, catalog.CreateProductRequest{Name: "Cola", Price: 1.5, Quantity: 10, CategoryID: bev.ID})
	createProduct(t, svc, catalog.CreateProductRequest{Name: "diet cola", Price: 1.75, Quantity: 2, CategoryID: bev.ID})
	createProduct(t, svc, catalog.CreateProductRequest{Name: "Water", Price: 0.5, Quantity: 0, CategoryID: bev.ID})
	createProduct(t, svc, catalog.CreateProductRequest{Name: "Chips", Price: 2.25, Quantity: 7, CategoryID: snacks.ID})
	gone := createProduct(t, svc, catalog.CreateProductRequest{Name: "Cola Classic", Price: 1, Quantity: 1, CategoryID: bev.ID})
	_, err := svc.DeleteProduct(ctx, catalog.DeleteProductRequest{ID: gone.ID, ActorID: actor})
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters catalog.ProductListFilters
		want    []string
	}{
		{
			name: "default sort is name ascending and excludes deleted",
			want: []string{"Chips", "Cola", "diet cola", "Water"},
		},
		{
			name:    "category",
			filters: catalog.ProductListFilters{CategoryID: bev.ID},
			want:    []string{"Cola", "diet cola", "Water"},
		},
		{
			name:    "price range inclusive",
			filters: catalog.ProductListFilters{MinPrice: ptr(1.5), MaxPrice: ptr(2.25)},
			want:    []string{"Chips", "Cola", "diet cola"},
		},
		{
			name:    "search is case insensitive",
			filters: catalog.ProductListFilters{Search: "COLA"},
			want:    []string{"Cola", "diet cola"},
		},
		{
			name:    "price ascending",
			filters: catalog.ProductListFilters{SortBy: catalog.SortByPrice, SortOrder: catalog.SortAsc},
			want:    []string{"Water", "Cola", "diet cola", "Chips"},
		},
		{
			name:    "price descending",
			filters: catalog.ProductListFilters{SortBy: catalog.SortByPrice, SortOrder: catalog.SortDesc},
			want:    []string{"Chips", "diet cola", "Cola", "Water"},
		},
		{
			name:    "name sort ignores order",
			filters: catalog.ProductListFilters{SortBy: catalog.SortByName, SortOrder: catalog.SortDesc},
			want:    []string{"Chips", "Cola", "diet cola", "Water"},
		},
		{
			name:    "stages combine",
			filters: catalog.ProductListFilters{CategoryID: bev.ID, MaxPrice: ptr(1.6), Search: "A", SortBy: catalog.SortByPrice, SortOrder: catalog.SortDesc},
			want:    []string{"Cola", "Water"},
		},
		{
			name:    "no match",
			filters: catalog.ProductListFilters{Search: "pretzel"},
			want:    []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := svc.ListProducts(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(products))
			for _, p := range products {
				assert.False(t, p.IsDeleted())
			}
		})
	}
}

func TestContainsFold(t *testing.T) {
	assert.True(t, catalog.ContainsFold("Éclair au chocolat", "ÉCLAIR"))
	assert.True(t, catalog.ContainsFold("Cola", "ol"))
	assert.False(t, catalog.ContainsFold("Cola", "pepsi"))
	assert.True(t, catalog.ContainsFold("anything", ""))
}
