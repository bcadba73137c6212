package catalog

import (
	"time"
)

// ProductStatus is the lifecycle state of a product.
type ProductStatus string

// Product status constants (typed).
const (
	ProductStatusActive  ProductStatus = "active"
	ProductStatusDeleted ProductStatus = "deleted"
)

// StatusScope selects which product states a read accessor may return.
type StatusScope int

const (
	// ScopeActive returns only active products. This is the scope of every
	// user-facing read path.
	ScopeActive StatusScope = iota
	// ScopeDeleted returns only soft-deleted products.
	ScopeDeleted
	// ScopeAll returns products regardless of status. Reserved for internal
	// cleanup lookups.
	ScopeAll
)

// Includes reports whether a product in the given status is visible in this scope.
func (s StatusScope) Includes(status ProductStatus) bool {
	switch s {
	case ScopeAll:
		return true
	case ScopeDeleted:
		return status == ProductStatusDeleted
	default:
		return status != ProductStatusDeleted
	}
}

// Role is a user's role. The set is closed.
type Role string

// Role constants (typed).
const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// CanManageCatalog reports whether the role may mutate products and categories.
func (r Role) CanManageCatalog() bool {
	return r == RoleAdmin || r == RoleStaff
}

// CanManageUsers reports whether the role may change other users.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

// Action is the kind of mutation recorded in the audit log.
type Action string

// Audit action constants (typed).
const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Entity names the collection an audit entry refers to.
type Entity string

// Entity constants (typed).
const (
	EntityProduct  Entity = "product"
	EntityCategory Entity = "category"
	EntityUser     Entity = "user"
)

// InventoryStatus is the stock level bucket derived from a quantity.
type InventoryStatus string

// Inventory status constants (typed).
const (
	InventoryOutOfStock InventoryStatus = "out-of-stock"
	InventoryLowStock   InventoryStatus = "low-stock"
	InventoryInStock    InventoryStatus = "in-stock"
)

// LowStockThreshold is the smallest quantity reported as in stock.
const LowStockThreshold = 5

// ImageRef points at a product image in the blob store. The product record is
// the only durable pointer to Key.
type ImageRef struct {
	URL string `json:"imageUrl,omitempty"`
	Key string `json:"imageKey,omitempty"`
}

// IsZero reports whether the reference is empty.
func (r ImageRef) IsZero() bool {
	return r.URL == "" && r.Key == ""
}

// Product represents a catalog product.
type Product struct {
	ID         string        `json:"productId"`
	Name       string        `json:"name"`
	Price      float64       `json:"price"`
	Quantity   int           `json:"quantity"`
	CategoryID string        `json:"categoryId,omitempty"`
	Image      ImageRef      `json:"image"`
	Status     ProductStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	DeletedAt  *time.Time    `json:"deletedAt,omitempty"`
}

// IsDeleted reports whether the product has been soft-deleted.
func (p *Product) IsDeleted() bool {
	return p.Status == ProductStatusDeleted
}

// Category groups products.
type Category struct {
	ID          string    `json:"categoryId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// User is an operator of the catalog. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"userId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LogEntry is an append-only audit record of a committed mutation.
type LogEntry struct {
	ID        string    `json:"logId"`
	SubjectID string    `json:"subjectId"`
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	ActorID   string    `json:"actorId"`
	Timestamp time.Time `json:"timestamp"`
}

// ImageUpload is decoded image content handed over by the upload collaborator.
type ImageUpload struct {
	Data        []byte
	ContentType string
	FileName    string
}

// ObjectMeta contains metadata about an object in blob storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
