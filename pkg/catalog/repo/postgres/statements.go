package postgres

import (
	"fmt"
	"strings"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

const (
	productColumns  = "id, name, price, quantity, category_id, image_url, image_key, created_at, is_deleted, deleted_at"
	categoryColumns = "id, name, description, created_at"
	userColumns     = "id, username, password_hash, role, created_at"
	logColumns      = "id, subject_id, entity, action, actor_id, created_at"
)

// columns maps persisted field names to table columns.
var columns = map[string]string{
	catalog.FieldName:        "name",
	catalog.FieldPrice:       "price",
	catalog.FieldQuantity:    "quantity",
	catalog.FieldCategoryID:  "category_id",
	catalog.FieldImageURL:    "image_url",
	catalog.FieldImageKey:    "image_key",
	catalog.FieldDescription: "description",
	catalog.FieldPassword:    "password_hash",
	catalog.FieldRole:        "role",
}

// clause accumulates SQL fragments and their positional arguments.
type clause struct {
	parts []string
	args  []any
}

// add appends a fragment; %d in format is replaced by the next placeholder index.
func (c *clause) add(format string, arg any) {
	c.args = append(c.args, arg)
	c.parts = append(c.parts, fmt.Sprintf(format, len(c.args)))
}

// addRaw appends a fragment that takes no argument.
func (c *clause) addRaw(fragment string) {
	c.parts = append(c.parts, fragment)
}

func (c *clause) where() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.parts, " AND ")
}

func scopeCondition(scope catalog.StatusScope) string {
	switch scope {
	case catalog.ScopeAll:
		return ""
	case catalog.ScopeDeleted:
		return "is_deleted"
	default:
		return "NOT is_deleted"
	}
}

func selectProducts(q catalog.ProductQuery) (string, []any) {
	var c clause
	if cond := scopeCondition(q.Scope); cond != "" {
		c.addRaw(cond)
	}
	if q.CategoryID != "" {
		c.add("category_id = $%d", q.CategoryID)
	}
	if q.MinPrice != nil {
		c.add("price >= $%d", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		c.add("price <= $%d", *q.MaxPrice)
	}
	if q.NameContains != "" {
		c.add("name ILIKE $%d", "%"+escapeLike(q.NameContains)+"%")
	}
	return "SELECT " + productColumns + " FROM " + ProductsTable + c.where(), c.args
}

func selectCategories(q catalog.CategoryQuery) (string, []any) {
	var c clause
	if q.Name != "" {
		c.add("name = $%d", q.Name)
	}
	return "SELECT " + categoryColumns + " FROM " + CategoriesTable + c.where(), c.args
}

func selectUsers(q catalog.UserQuery) (string, []any) {
	var c clause
	if q.Username != "" {
		c.add("username = $%d", q.Username)
	}
	if q.Role != "" {
		c.add("role = $%d", string(q.Role))
	}
	return "SELECT " + userColumns + " FROM " + UsersTable + c.where(), c.args
}

func selectLogs(q catalog.LogQuery) (string, []any) {
	var c clause
	if q.SubjectID != "" {
		c.add("subject_id = $%d", q.SubjectID)
	}
	if q.ActorID != "" {
		c.add("actor_id = $%d", q.ActorID)
	}
	if q.Entity != "" {
		c.add("entity = $%d", string(q.Entity))
	}
	return "SELECT " + logColumns + " FROM " + LogsTable + c.where() + " ORDER BY seq", c.args
}

// updateStatement builds "UPDATE table SET col = $2, ... WHERE id = $1 [AND cond]
// RETURNING cols" covering exactly the supplied fields. fields and values are
// parallel. It returns "" when there is nothing to set.
func updateStatement(table, returning, cond string, id string, fields []string, values []any) (string, []any) {
	if len(fields) == 0 {
		return "", nil
	}
	c := clause{args: []any{id}}
	for i, field := range fields {
		c.add(columns[field]+" = $%d", values[i])
	}
	stmt := "UPDATE " + table + " SET " + strings.Join(c.parts, ", ") + " WHERE id = $1"
	if cond != "" {
		stmt += " AND " + cond
	}
	return stmt + " RETURNING " + returning, c.args
}

func productPatchValues(p catalog.ProductPatch) ([]string, []any) {
	var values []any
	if p.Name != nil {
		values = append(values, *p.Name)
	}
	if p.Price != nil {
		values = append(values, *p.Price)
	}
	if p.Quantity != nil {
		values = append(values, *p.Quantity)
	}
	if p.CategoryID != nil {
		values = append(values, nullable(*p.CategoryID))
	}
	if p.Image != nil {
		values = append(values, p.Image.URL, p.Image.Key)
	}
	return p.Fields(), values
}

func categoryPatchValues(p catalog.CategoryPatch) ([]string, []any) {
	var fields []string
	var values []any
	if p.Name != nil {
		fields = append(fields, catalog.FieldName)
		values = append(values, *p.Name)
	}
	if p.Description != nil {
		fields = append(fields, catalog.FieldDescription)
		values = append(values, *p.Description)
	}
	return fields, values
}

func userPatchValues(p catalog.UserPatch) ([]string, []any) {
	var fields []string
	var values []any
	if p.PasswordHash != nil {
		fields = append(fields, catalog.FieldPassword)
		values = append(values, *p.PasswordHash)
	}
	if p.Role != nil {
		fields = append(fields, catalog.FieldRole)
		values = append(values, string(*p.Role))
	}
	return fields, values
}

// nullable maps "" to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
