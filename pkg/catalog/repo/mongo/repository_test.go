package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-catalog/pkg/catalog"
	mongorepo "github.com/tendant/simple-catalog/pkg/catalog/repo/mongo"
)

// newTestRepository connects to CATALOG_TEST_MONGO_URI and returns a
// repository over a throwaway database. The test is skipped when the
// variable is unset.
func newTestRepository(t *testing.T) *mongorepo.Repository {
	t.Helper()
	uri := os.Getenv("CATALOG_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CATALOG_TEST_MONGO_URI not set, skipping MongoDB integration tests")
	}

	ctx := context.Background()
	client, err := mongorepo.Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("catalog_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	repo := mongorepo.New(db)
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestMongoRepository_Products(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	product := &catalog.Product{ID: "p1", Name: "Cola", Price: 1.5, Quantity: 10, CategoryID: "c1"}
	require.NoError(t, repo.PutProduct(ctx, product))

	got, err := repo.GetProduct(ctx, "p1", catalog.ScopeActive)
	require.NoError(t, err)
	assert.Equal(t, catalog.ProductStatusActive, got.Status)

	price := 2.0
	updated, err := repo.PatchProduct(ctx, "p1", catalog.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 2.0, updated.Price)
	assert.Equal(t, "Cola", updated.Name)
	assert.Equal(t, got.CreatedAt, updated.CreatedAt)

	matched, err := catalog.Collect(repo.ScanProducts(ctx, catalog.ProductQuery{NameContains: "col"}))
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	deleted, err := repo.SoftDeleteProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	assert.NotNil(t, deleted.DeletedAt)

	_, err = repo.GetProduct(ctx, "p1", catalog.ScopeActive)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = repo.PatchProduct(ctx, "p1", catalog.ProductPatch{Price: &price})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	require.NoError(t, repo.HardDeleteProduct(ctx, "p1"))
	assert.ErrorIs(t, repo.HardDeleteProduct(ctx, "p1"), catalog.ErrNotFound)
}

func TestMongoRepository_UniqueUsername(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &catalog.User{ID: "u1", Username: "alice", Role: catalog.RoleStaff}))
	err := repo.CreateUser(ctx, &catalog.User{ID: "u2", Username: "alice", Role: catalog.RoleStaff})
	assert.ErrorIs(t, err, catalog.ErrConflict)
}

func TestMongoRepository_Logs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i, action := range []catalog.Action{catalog.ActionCreate, catalog.ActionUpdate} {
		require.NoError(t, repo.AppendLog(ctx, &catalog.LogEntry{
			ID:        fmt.Sprintf("l%d", i),
			SubjectID: "p1",
			Entity:    catalog.EntityProduct,
			Action:    action,
			ActorID:   "actor",
			Timestamp: time.Now().UTC(),
		}))
	}

	entries, err := catalog.Collect(repo.ScanLogs(ctx, catalog.LogQuery{SubjectID: "p1"}))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, catalog.ActionCreate, entries[0].Action)
	assert.Equal(t, catalog.ActionUpdate, entries[1].Action)
}
