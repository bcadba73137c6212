package presets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

func pngUpload() catalog.ImageUpload {
	return catalog.ImageUpload{Data: []byte("\x89PNG fake"), ContentType: "image/png", FileName: "cola.png"}
}

func TestNewDevelopment(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "dev-data")

	cat, cleanup, err := NewDevelopment(ctx, WithDevStorage(dir), WithDevPublicURL("http://localhost:8080/images"), WithDevLogLevel("error"))
	require.NoError(t, err)

	product, err := cat.Workflow.CreateProductWithImage(ctx, catalog.CreateProductRequest{Name: "Cola", Price: 1.5, ActorID: "dev"}, pngUpload())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/images/"+product.Image.Key, product.Image.URL)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(product.Image.Key)))
	assert.NoError(t, err)

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "dev-data should be removed after cleanup")
}

func TestNewTesting(t *testing.T) {
	var logs bytes.Buffer
	cat := NewTesting(t, WithFixtures(), WithTestLogOutput(&logs))
	ctx := context.Background()

	admin, err := cat.Service.Authenticate(ctx, FixtureAdminUsername, FixtureAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, catalog.RoleAdmin, admin.Role)

	categories, err := cat.Service.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, FixtureCategoryName, categories[0].Name)

	assert.Contains(t, logs.String(), "user registered")
}

func TestNewTesting_Isolated(t *testing.T) {
	first := NewTesting(t)
	second := NewTesting(t)
	ctx := context.Background()

	_, err := first.Service.CreateCategory(ctx, catalog.CreateCategoryRequest{Name: "Only here", ActorID: "a"})
	require.NoError(t, err)

	categories, err := second.Service.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestNewProduction_RejectsMemoryStores(t *testing.T) {
	ctx := context.Background()

	t.Setenv("CATALOG_STORE_URL", "memory://")
	_, err := NewProduction(ctx)
	assert.ErrorContains(t, err, "persistent metadata store")

	t.Setenv("CATALOG_STORE_URL", "postgres://localhost/db")
	t.Setenv("CATALOG_BLOB_URL", "memory://")
	_, err = NewProduction(ctx)
	assert.ErrorContains(t, err, "persistent image storage")
}
