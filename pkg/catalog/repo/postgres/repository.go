package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements catalog.Repository on PostgreSQL. Queries become
// WHERE clauses and patches become UPDATE statements naming only the
// supplied columns.
type Repository struct {
	db  DBTX
	now func() time.Time
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Connect creates a pool for databaseURL and verifies it with a ping. When
// schema is set every pooled connection uses it as search_path.
func Connect(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// Product operations

func (r *Repository) GetProduct(ctx context.Context, id string, scope catalog.StatusScope) (*catalog.Product, error) {
	query := "SELECT " + productColumns + " FROM " + ProductsTable + " WHERE id = $1"
	if cond := scopeCondition(scope); cond != "" {
		query += " AND " + cond
	}
	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr(ProductsTable, catalog.EntityProduct, id, "get", err)
	}
	return product, nil
}

// PutProduct inserts the product or replaces every column of an existing row.
// A zero CreatedAt or empty Status is stamped before the write.
func (r *Repository) PutProduct(ctx context.Context, product *catalog.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.now()
	}
	if product.Status == "" {
		product.Status = catalog.ProductStatusActive
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, quantity = EXCLUDED.quantity,
			category_id = EXCLUDED.category_id, image_url = EXCLUDED.image_url,
			image_key = EXCLUDED.image_key, created_at = EXCLUDED.created_at,
			is_deleted = EXCLUDED.is_deleted, deleted_at = EXCLUDED.deleted_at`

	_, err := r.db.Exec(ctx, query,
		product.ID, product.Name, product.Price, product.Quantity, nullable(product.CategoryID),
		product.Image.URL, product.Image.Key, product.CreatedAt, product.IsDeleted(), product.DeletedAt)
	if err != nil {
		return storageErr(ProductsTable, product.ID, "put", err)
	}
	return nil
}

func (r *Repository) PatchProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*catalog.Product, error) {
	fields, values := productPatchValues(patch)
	stmt, args := updateStatement(ProductsTable, productColumns, "NOT is_deleted", id, fields, values)
	if stmt == "" {
		return nil, nil
	}
	product, err := scanProduct(r.db.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, mapErr(ProductsTable, catalog.EntityProduct, id, "patch", err)
	}
	return product, nil
}

func (r *Repository) SoftDeleteProduct(ctx context.Context, id string) (*catalog.Product, error) {
	query := `UPDATE products SET is_deleted = TRUE, deleted_at = $2
		WHERE id = $1 AND NOT is_deleted RETURNING ` + productColumns
	product, err := scanProduct(r.db.QueryRow(ctx, query, id, r.now()))
	if err != nil {
		return nil, mapErr(ProductsTable, catalog.EntityProduct, id, "soft_delete", err)
	}
	return product, nil
}

func (r *Repository) HardDeleteProduct(ctx context.Context, id string) error {
	return r.deleteRow(ctx, ProductsTable, catalog.EntityProduct, id)
}

func (r *Repository) ScanProducts(ctx context.Context, query catalog.ProductQuery) iter.Seq2[*catalog.Product, error] {
	stmt, args := selectProducts(query)
	return scan(ctx, r.db, ProductsTable, stmt, args, scanProduct)
}

// Category operations

func (r *Repository) GetCategory(ctx context.Context, id string) (*catalog.Category, error) {
	query := "SELECT " + categoryColumns + " FROM " + CategoriesTable + " WHERE id = $1"
	category, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr(CategoriesTable, catalog.EntityCategory, id, "get", err)
	}
	return category, nil
}

func (r *Repository) PutCategory(ctx context.Context, category *catalog.Category) error {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = r.now()
	}
	query := `
		INSERT INTO categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, created_at = EXCLUDED.created_at`
	_, err := r.db.Exec(ctx, query, category.ID, category.Name, category.Description, category.CreatedAt)
	if err != nil {
		return storageErr(CategoriesTable, category.ID, "put", err)
	}
	return nil
}

func (r *Repository) PatchCategory(ctx context.Context, id string, patch catalog.CategoryPatch) (*catalog.Category, error) {
	fields, values := categoryPatchValues(patch)
	stmt, args := updateStatement(CategoriesTable, categoryColumns, "", id, fields, values)
	if stmt == "" {
		return nil, nil
	}
	category, err := scanCategory(r.db.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, mapErr(CategoriesTable, catalog.EntityCategory, id, "patch", err)
	}
	return category, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	return r.deleteRow(ctx, CategoriesTable, catalog.EntityCategory, id)
}

func (r *Repository) ScanCategories(ctx context.Context, query catalog.CategoryQuery) iter.Seq2[*catalog.Category, error] {
	stmt, args := selectCategories(query)
	return scan(ctx, r.db, CategoriesTable, stmt, args, scanCategory)
}

// User operations

func (r *Repository) GetUser(ctx context.Context, id string) (*catalog.User, error) {
	query := "SELECT " + userColumns + " FROM " + UsersTable + " WHERE id = $1"
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr(UsersTable, catalog.EntityUser, id, "get", err)
	}
	return user, nil
}

// CreateUser inserts user. The users_username_unique constraint rejects a
// second row with the same username.
func (r *Repository) CreateUser(ctx context.Context, user *catalog.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	query := "INSERT INTO users (" + userColumns + ") VALUES ($1, $2, $3, $4, $5)"
	_, err := r.db.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, string(user.Role), user.CreatedAt)
	if isUniqueViolation(err) {
		return &catalog.ConflictError{Entity: catalog.EntityUser, ID: user.Username, Reason: "username already exists"}
	}
	if err != nil {
		return storageErr(UsersTable, user.ID, "create", err)
	}
	return nil
}

func (r *Repository) PatchUser(ctx context.Context, id string, patch catalog.UserPatch) (*catalog.User, error) {
	fields, values := userPatchValues(patch)
	stmt, args := updateStatement(UsersTable, userColumns, "", id, fields, values)
	if stmt == "" {
		return nil, nil
	}
	user, err := scanUser(r.db.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, mapErr(UsersTable, catalog.EntityUser, id, "patch", err)
	}
	return user, nil
}

func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	return r.deleteRow(ctx, UsersTable, catalog.EntityUser, id)
}

func (r *Repository) ScanUsers(ctx context.Context, query catalog.UserQuery) iter.Seq2[*catalog.User, error] {
	stmt, args := selectUsers(query)
	return scan(ctx, r.db, UsersTable, stmt, args, scanUser)
}

// Audit log operations

func (r *Repository) AppendLog(ctx context.Context, entry *catalog.LogEntry) error {
	query := "INSERT INTO product_logs (" + logColumns + ") VALUES ($1, $2, $3, $4, $5, $6)"
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.SubjectID, string(entry.Entity), string(entry.Action), entry.ActorID, entry.Timestamp)
	if err != nil {
		return storageErr(LogsTable, entry.ID, "append", err)
	}
	return nil
}

func (r *Repository) ScanLogs(ctx context.Context, query catalog.LogQuery) iter.Seq2[*catalog.LogEntry, error] {
	stmt, args := selectLogs(query)
	return scan(ctx, r.db, LogsTable, stmt, args, scanLogEntry)
}

func (r *Repository) deleteRow(ctx context.Context, table string, entity catalog.Entity, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return storageErr(table, id, "delete", err)
	}
	if tag.RowsAffected() == 0 {
		return &catalog.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

// Row scanners

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var (
		p          catalog.Product
		categoryID *string
		isDeleted  bool
	)
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &categoryID,
		&p.Image.URL, &p.Image.Key, &p.CreatedAt, &isDeleted, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	if categoryID != nil {
		p.CategoryID = *categoryID
	}
	p.Status = catalog.ProductStatusActive
	if isDeleted {
		p.Status = catalog.ProductStatusDeleted
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if p.DeletedAt != nil {
		t := p.DeletedAt.UTC()
		p.DeletedAt = &t
	}
	return &p, nil
}

func scanCategory(row pgx.Row) (*catalog.Category, error) {
	var c catalog.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func scanUser(row pgx.Row) (*catalog.User, error) {
	var (
		u    catalog.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = catalog.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func scanLogEntry(row pgx.Row) (*catalog.LogEntry, error) {
	var (
		e              catalog.LogEntry
		entity, action string
	)
	if err := row.Scan(&e.ID, &e.SubjectID, &entity, &action, &e.ActorID, &e.Timestamp); err != nil {
		return nil, err
	}
	e.Entity = catalog.Entity(entity)
	e.Action = catalog.Action(action)
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}

// scan issues query lazily on the first pull and closes the rows when
// iteration stops.
func scan[T any](ctx context.Context, db DBTX, table, query string, args []any, scanRow func(pgx.Row) (*T, error)) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		rows, err := db.Query(ctx, query, args...)
		if err != nil {
			yield(nil, storageErr(table, "", "scan", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanRow(rows)
			if err != nil {
				yield(nil, storageErr(table, "", "decode", err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, storageErr(table, "", "scan", err))
		}
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapErr(table string, entity catalog.Entity, id, op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &catalog.NotFoundError{Entity: entity, ID: id}
	}
	return storageErr(table, id, op, err)
}

func storageErr(table, key, op string, err error) error {
	return &catalog.StorageError{Collection: table, Key: key, Op: op, Err: err}
}

var _ catalog.Repository = (*Repository)(nil)
