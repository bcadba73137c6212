package catalog

import (
	"context"
)

// Service defines the consistency orchestrator for the catalog. It owns the
// cross-entity invariants (category existence, deletion blocking, soft
// delete) and appends an audit entry for every committed mutation. It never
// touches blob storage; see ImageWorkflow for the image sequencing.
type Service interface {
	// Product operations
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	UpdateProduct(ctx context.Context, req UpdateProductRequest) (*Product, error)
	// DeleteProduct soft-deletes and returns the retired record so the caller
	// can clean up its image.
	DeleteProduct(ctx context.Context, req DeleteProductRequest) (*Product, error)
	// PurgeProduct physically removes a product in any status.
	PurgeProduct(ctx context.Context, req DeleteProductRequest) (*Product, error)
	ListProducts(ctx context.Context, filters ProductListFilters) ([]*Product, error)

	// Category operations
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, req DeleteCategoryRequest) error
	ListCategories(ctx context.Context) ([]*Category, error)

	// User operations
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ChangeUserRole(ctx context.Context, req ChangeUserRoleRequest) (*User, error)

	// Audit inspection
	History(ctx context.Context, subjectID string) ([]*LogEntry, error)
	ActorHistory(ctx context.Context, actorID string) ([]*LogEntry, error)
}
