package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// ProductQuery is a scan predicate over products. Zero-valued fields do not
// constrain the result. Stores that support filter expressions translate it
// server-side; others call Matches.
type ProductQuery struct {
	Scope        StatusScope
	CategoryID   string
	NameContains string
	MinPrice     *float64
	MaxPrice     *float64
}

// Matches reports whether p satisfies the query.
func (q ProductQuery) Matches(p *Product) bool {
	if !q.Scope.Includes(p.Status) {
		return false
	}
	if q.CategoryID != "" && p.CategoryID != q.CategoryID {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.NameContains != "" && !ContainsFold(p.Name, q.NameContains) {
		return false
	}
	return true
}

// CategoryQuery is a scan predicate over categories.
type CategoryQuery struct {
	Name string
}

// Matches reports whether c satisfies the query.
func (q CategoryQuery) Matches(c *Category) bool {
	return q.Name == "" || c.Name == q.Name
}

// UserQuery is a scan predicate over users. Username matching is exact and
// case-sensitive.
type UserQuery struct {
	Username string
	Role     Role
}

// Matches reports whether u satisfies the query.
func (q UserQuery) Matches(u *User) bool {
	if q.Username != "" && u.Username != q.Username {
		return false
	}
	if q.Role != "" && u.Role != q.Role {
		return false
	}
	return true
}

// LogQuery is a scan predicate over audit entries.
type LogQuery struct {
	SubjectID string
	ActorID   string
	Entity    Entity
}

// Matches reports whether e satisfies the query.
func (q LogQuery) Matches(e *LogEntry) bool {
	if q.SubjectID != "" && e.SubjectID != q.SubjectID {
		return false
	}
	if q.ActorID != "" && e.ActorID != q.ActorID {
		return false
	}
	if q.Entity != "" && e.Entity != q.Entity {
		return false
	}
	return true
}

// ContainsFold reports whether substr is within s under Unicode case folding.
func ContainsFold(s, substr string) bool {
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}
