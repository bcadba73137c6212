package postgres

import (
	"context"
	"fmt"
)

// Table names
const (
	ProductsTable   = "products"
	CategoriesTable = "categories"
	UsersTable      = "users"
	LogsTable       = "product_logs"
)

// schemaStatements create the catalog tables. Category references are plain
// columns without a foreign key: referential checks belong to the service.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		quantity    INTEGER NOT NULL,
		category_id TEXT,
		image_url   TEXT NOT NULL DEFAULT '',
		image_key   TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		is_deleted  BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id, is_deleted)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		CONSTRAINT users_username_unique UNIQUE (username)
	)`,
	`CREATE TABLE IF NOT EXISTS product_logs (
		id         TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		entity     TEXT NOT NULL,
		action     TEXT NOT NULL,
		actor_id   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		seq        BIGSERIAL NOT NULL
	)`,
	`ALTER TABLE product_logs ADD COLUMN IF NOT EXISTS seq BIGSERIAL`,
	`CREATE INDEX IF NOT EXISTS idx_product_logs_subject ON product_logs (subject_id)`,
	`CREATE INDEX IF NOT EXISTS idx_product_logs_actor ON product_logs (actor_id)`,
}

// Migrate creates the catalog tables in the connection's search path if they
// do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate catalog schema: %w", err)
		}
	}
	return nil
}
