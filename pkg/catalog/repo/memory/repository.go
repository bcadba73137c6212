package memory

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

// Repository implements catalog.Repository using in-memory storage. Queries
// are evaluated client-side with the Matches predicates.
type Repository struct {
	mu         sync.RWMutex
	products   map[string]*catalog.Product
	categories map[string]*catalog.Category
	users      map[string]*catalog.User
	usernames  map[string]string // username -> user id
	logs       []*catalog.LogEntry
	now        func() time.Time
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		products:   make(map[string]*catalog.Product),
		categories: make(map[string]*catalog.Category),
		users:      make(map[string]*catalog.User),
		usernames:  make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source used for soft-delete timestamps.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	return r
}

// Product operations

func (r *Repository) GetProduct(ctx context.Context, id string, scope catalog.StatusScope) (*catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.products[id]
	if !exists || !scope.Includes(p.Status) {
		return nil, &catalog.NotFoundError{Entity: catalog.EntityProduct, ID: id}
	}
	return copyProduct(p), nil
}

func (r *Repository) PutProduct(ctx context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := copyProduct(product)
	if _, exists := r.products[p.ID]; !exists {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = r.now()
		}
		if p.Status == "" {
			p.Status = catalog.ProductStatusActive
		}
	}
	r.products[p.ID] = p
	*product = *copyProduct(p)
	return nil
}

func (r *Repository) PatchProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*catalog.Product, error) {
	if patch.IsEmpty() {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.products[id]
	if !exists || p.IsDeleted() {
		return nil, &catalog.NotFoundError{Entity: catalog.EntityProduct, ID: id}
	}
	patch.Apply(p)
	return copyProduct(p), nil
}

func (r *Repository) SoftDeleteProduct(ctx context.Context, id string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.products[id]
	if !exists || p.IsDeleted() {
		return nil, &catalog.NotFoundError{Entity: catalog.EntityProduct, ID: id}
	}
	now := r.now()
	p.Status = catalog.ProductStatusDeleted
	p.DeletedAt = &now
	return copyProduct(p), nil
}

func (r *Repository) HardDeleteProduct(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		return &catalog.NotFoundError{Entity: catalog.EntityProduct, ID: id}
	}
	delete(r.products, id)
	return nil
}

func (r *Repository) ScanProducts(ctx context.Context, query catalog.ProductQuery) iter.Seq2[*catalog.Product, error] {
	r.mu.RLock()
	var snapshot []*catalog.Product
	for _, p := range r.products {
		if query.Matches(p) {
			snapshot = append(snapshot, copyProduct(p))
		}
	}
	r.mu.RUnlock()
	return scan(ctx, "products", snapshot)
}

// Category operations

func (r *Repository) GetCategory(ctx context.Context, id string) (*catalog.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.categories[id]
	if !exists {
		return nil, &catalog.NotFoundError{Entity: catalog.EntityCategory, ID: id}
	}
	categoryCopy := *c
	return &categoryCopy, nil
}

func (r *Repository) PutCategory(ctx context.Context, category *catalog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	categoryCopy := *category
	if _, exists := r.categories[category.ID]; !exists && categoryCopy.CreatedAt.IsZero() {
		categoryCopy.CreatedAt = r.now()
		category.CreatedAt = categoryCopy.CreatedAt
	}
	r.categories[category.ID] = &categoryCopy
	return nil
}

func (r *Repository) PatchCategory(ctx context.Context, id string, patch catalog.CategoryPatch) (*catalog.Category, error) {
	if patch.IsEmpty() {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.categories[id]
	if !exists {
		return nil, &catalog.NotFoundError{Entity: catalog.EntityCategory, ID: id}
	}
	patch.Apply(c)
	categoryCopy := *c
	return &categoryCopy, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[id]; !exists {
		return &catalog.NotFoundError{Entity: catalog.EntityCategory, ID: id}
	}
	delete(r.categories, id)
	return nil
}

func (r *Repository) ScanCategories(ctx context.Context, query catalog.CategoryQuery) iter.Seq2[*catalog.Category, error] {
	r.mu.RLock()
	var snapshot []*catalog.Category
	for _, c := range r.categories {
		if query.Matches(c) {
			categoryCopy := *c
			snapshot = append(snapshot, &categoryCopy)
		}
	}
	r.mu.RUnlock()
	return scan(ctx, "categories", snapshot)
}

// User operations

func (r *Repository) GetUser(ctx context.Context, id string) (*catalog.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return nil, &catalog.NotFoundError{Entity: catalog.EntityUser, ID: id}
	}
	userCopy := *u
	return &userCopy, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *catalog.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.usernames[user.Username]; taken {
		return &catalog.ConflictError{Entity: catalog.EntityUser, ID: user.Username, Reason: "username already exists"}
	}
	if _, exists := r.users[user.ID]; exists {
		return &catalog.ConflictError{Entity: catalog.EntityUser, ID: user.ID, Reason: "user already exists"}
	}

	userCopy := *user
	if userCopy.CreatedAt.IsZero() {
		userCopy.CreatedAt = r.now()
		user.CreatedAt = userCopy.CreatedAt
	}
	r.users[user.ID] = &userCopy
	r.usernames[user.Username] = user.ID
	return nil
}

func (r *Repository) PatchUser(ctx context.Context, id string, patch catalog.UserPatch) (*catalog.User, error) {
	if patch.IsEmpty() {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[id]
	if !exists {
		return nil, &catalog.NotFoundError{Entity: catalog.EntityUser, ID: id}
	}
	patch.Apply(u)
	userCopy := *u
	return &userCopy, nil
}

func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[id]
	if !exists {
		return &catalog.NotFoundError{Entity: catalog.EntityUser, ID: id}
	}
	delete(r.usernames, u.Username)
	delete(r.users, id)
	return nil
}

func (r *Repository) ScanUsers(ctx context.Context, query catalog.UserQuery) iter.Seq2[*catalog.User, error] {
	r.mu.RLock()
	var snapshot []*catalog.User
	for _, u := range r.users {
		if query.Matches(u) {
			userCopy := *u
			snapshot = append(snapshot, &userCopy)
		}
	}
	r.mu.RUnlock()
	return scan(ctx, "users", snapshot)
}

// Audit log operations

func (r *Repository) AppendLog(ctx context.Context, entry *catalog.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entryCopy := *entry
	r.logs = append(r.logs, &entryCopy)
	return nil
}

func (r *Repository) ScanLogs(ctx context.Context, query catalog.LogQuery) iter.Seq2[*catalog.LogEntry, error] {
	r.mu.RLock()
	var snapshot []*catalog.LogEntry
	for _, e := range r.logs {
		if query.Matches(e) {
			entryCopy := *e
			snapshot = append(snapshot, &entryCopy)
		}
	}
	r.mu.RUnlock()
	return scan(ctx, "logs", snapshot)
}

// scan yields a snapshot lazily, stopping early if ctx is cancelled.
func scan[T any](ctx context.Context, collection string, items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				var zero T
				yield(zero, &catalog.StorageError{Collection: collection, Op: "scan", Err: err})
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

func copyProduct(p *catalog.Product) *catalog.Product {
	productCopy := *p
	if p.DeletedAt != nil {
		deletedAt := *p.DeletedAt
		productCopy.DeletedAt = &deletedAt
	}
	return &productCopy
}

var _ catalog.Repository = (*Repository)(nil)
