package catalog

// Request DTOs. ActorID is the authenticated identity supplied by the
// transport layer; it is required on every mutating request.

// CreateProductRequest contains parameters for creating a product
type CreateProductRequest struct {
	Name       string
	Price      float64
	Quantity   int
	CategoryID string
	Image      ImageRef
	ActorID    string
}

// UpdateProductRequest contains parameters for a partial product update
type UpdateProductRequest struct {
	ID      string
	Patch   ProductPatch
	ActorID string
}

// DeleteProductRequest contains parameters for deleting a product
type DeleteProductRequest struct {
	ID      string
	ActorID string
}

// SortField selects the product listing order.
type SortField string

const (
	SortByName  SortField = "name"
	SortByPrice SortField = "price"
)

// SortOrder is the direction of a price sort. Name sorting is always ascending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ProductListFilters contains the optional listing filters. Each stage is a
// no-op pass when its input is absent.
type ProductListFilters struct {
	CategoryID string
	MinPrice   *float64
	MaxPrice   *float64
	Search     string
	SortBy     SortField
	SortOrder  SortOrder
}

// CreateCategoryRequest contains parameters for creating a category
type CreateCategoryRequest struct {
	Name        string
	Description string
	ActorID     string
}

// UpdateCategoryRequest contains parameters for a partial category update
type UpdateCategoryRequest struct {
	ID      string
	Patch   CategoryPatch
	ActorID string
}

// DeleteCategoryRequest contains parameters for deleting a category
type DeleteCategoryRequest struct {
	ID      string
	ActorID string
}

// RegisterUserRequest contains parameters for registering a user. ActorID may
// be empty for self-registration, in which case the new user is recorded as
// its own actor.
type RegisterUserRequest struct {
	Username string
	Password string
	Role     Role
	ActorID  string
}

// ChangeUserRoleRequest contains parameters for changing a user's role
type ChangeUserRoleRequest struct {
	UserID  string
	Role    Role
	ActorID string
}
