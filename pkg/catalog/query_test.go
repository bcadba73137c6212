package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

func TestStatusScope_Includes(t *testing.T) {
	tests := []struct {
		scope   catalog.StatusScope
		active  bool
		deleted bool
	}{
		{catalog.ScopeActive, true, false},
		{catalog.ScopeDeleted, false, true},
		{catalog.ScopeAll, true, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.active, tt.scope.Includes(catalog.ProductStatusActive), "scope %d active", tt.scope)
		assert.Equal(t, tt.deleted, tt.scope.Includes(catalog.ProductStatusDeleted), "scope %d deleted", tt.scope)
	}
}

func TestProductQuery_Matches(t *testing.T) {
	p := &catalog.Product{Name: "Sparkling Water", Price: 2, CategoryID: "c1", Status: catalog.ProductStatusActive}

	tests := []struct {
		name  string
		query catalog.ProductQuery
		want  bool
	}{
		{"zero query", catalog.ProductQuery{}, true},
		{"deleted scope", catalog.ProductQuery{Scope: catalog.ScopeDeleted}, false},
		{"category", catalog.ProductQuery{CategoryID: "c1"}, true},
		{"other category", catalog.ProductQuery{CategoryID: "c2"}, false},
		{"min inclusive", catalog.ProductQuery{MinPrice: ptr(2.0)}, true},
		{"max inclusive", catalog.ProductQuery{MaxPrice: ptr(2.0)}, true},
		{"below min", catalog.ProductQuery{MinPrice: ptr(2.01)}, false},
		{"above max", catalog.ProductQuery{MaxPrice: ptr(1.99)}, false},
		{"name case-insensitive", catalog.ProductQuery{NameContains: "WATER"}, true},
		{"name miss", catalog.ProductQuery{NameContains: "juice"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Matches(p))
		})
	}
}

func TestUserAndLogQuery_Matches(t *testing.T) {
	u := &catalog.User{Username: "Alice", Role: catalog.RoleAdmin}
	assert.True(t, catalog.UserQuery{Username: "Alice"}.Matches(u))
	assert.False(t, catalog.UserQuery{Username: "alice"}.Matches(u))
	assert.False(t, catalog.UserQuery{Role: catalog.RoleStaff}.Matches(u))

	e := &catalog.LogEntry{SubjectID: "p1", ActorID: "a1", Entity: catalog.EntityProduct}
	assert.True(t, catalog.LogQuery{SubjectID: "p1", ActorID: "a1"}.Matches(e))
	assert.False(t, catalog.LogQuery{Entity: catalog.EntityCategory}.Matches(e))
}
