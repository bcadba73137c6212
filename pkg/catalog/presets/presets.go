// Package presets assembles ready-made catalogs for common environments on
// top of the config package.
package presets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-catalog/pkg/catalog"
	"github.com/tendant/simple-catalog/pkg/catalog/config"
)

// NewDevelopment creates a catalog for local development: in-memory
// metadata, images on disk under ./dev-data and debug logging.
//
// The returned cleanup function closes the catalog and removes the image
// directory.
//
//	cat, cleanup, err := presets.NewDevelopment(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func NewDevelopment(ctx context.Context, opts ...DevelopmentOption) (*config.Catalog, func(), error) {
	cfg := &devConfig{
		storageDir: "./dev-data",
		logLevel:   "debug",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c, err := config.Load(
		config.WithStoreURL("memory://"),
		config.WithBlobURL("file://"+cfg.storageDir),
		config.WithBlobPublicBaseURL(cfg.publicURL),
		config.WithLogging(cfg.logLevel, "text"),
	)
	if err != nil {
		return nil, nil, err
	}

	cat, err := c.BuildService(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create development catalog: %w", err)
	}

	cleanup := func() {
		_ = cat.Close(context.Background())
		os.RemoveAll(cfg.storageDir)
	}
	return cat, cleanup, nil
}

// NewTesting creates an isolated catalog for tests: in-memory metadata and
// images, minimum bcrypt cost and no log output. It is closed through
// t.Cleanup.
func NewTesting(t testing.TB, opts ...TestingOption) *config.Catalog {
	t.Helper()

	cfg := &testConfig{logOutput: io.Discard}
	for _, opt := range opts {
		opt(cfg)
	}

	c, err := config.Load(
		config.WithStoreURL("memory://"),
		config.WithBlobURL("memory://"),
		config.WithPasswordCost(bcrypt.MinCost),
	)
	if err != nil {
		t.Fatalf("failed to load test configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(cfg.logOutput, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cat, err := c.BuildService(context.Background(), logger)
	if err != nil {
		t.Fatalf("failed to create test catalog: %v", err)
	}
	t.Cleanup(func() {
		_ = cat.Close(context.Background())
	})

	if cfg.fixtures {
		if err := seedFixtures(context.Background(), cat.Service); err != nil {
			t.Fatalf("failed to seed fixtures: %v", err)
		}
	}
	return cat
}

// NewProduction creates a catalog from the environment (see config.WithEnv),
// with opts applied afterwards. In-memory stores are rejected.
func NewProduction(ctx context.Context, opts ...config.Option) (*config.Catalog, error) {
	c, err := config.Load(append([]config.Option{config.WithEnv()}, opts...)...)
	if err != nil {
		return nil, err
	}

	if c.StoreType() == "memory" {
		return nil, fmt.Errorf("production preset requires a persistent metadata store (mongodb:// or postgres://)")
	}
	target, err := config.ParseBlobURL(c.BlobURL)
	if err != nil {
		return nil, err
	}
	if target.Type == "memory" {
		return nil, fmt.Errorf("production preset requires persistent image storage (file:// or s3://)")
	}

	return c.BuildService(ctx, nil)
}

// Fixture identities seeded by WithFixtures.
const (
	FixtureAdminUsername = "admin"
	FixtureAdminPassword = "admin123"
	FixtureCategoryName  = "General"
)

func seedFixtures(ctx context.Context, svc catalog.Service) error {
	admin, err := svc.RegisterUser(ctx, catalog.RegisterUserRequest{
		Username: FixtureAdminUsername,
		Password: FixtureAdminPassword,
		Role:     catalog.RoleAdmin,
	})
	if err != nil {
		return err
	}
	_, err = svc.CreateCategory(ctx, catalog.CreateCategoryRequest{Name: FixtureCategoryName, ActorID: admin.ID})
	return err
}

type devConfig struct {
	storageDir string
	publicURL  string
	logLevel   string
}

type testConfig struct {
	fixtures  bool
	logOutput io.Writer
}

// DevelopmentOption is a functional option for NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevStorage sets the development image directory
func WithDevStorage(dir string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.storageDir = dir
	}
}

// WithDevPublicURL sets the base URL images are served from
func WithDevPublicURL(base string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.publicURL = base
	}
}

// WithDevLogLevel sets the development log level
func WithDevLogLevel(level string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.logLevel = level
	}
}

// TestingOption is a functional option for NewTesting
type TestingOption func(*testConfig)

// WithFixtures seeds an admin user and a category
func WithFixtures() TestingOption {
	return func(cfg *testConfig) {
		cfg.fixtures = true
	}
}

// WithTestLogOutput sends catalog logs to w
func WithTestLogOutput(w io.Writer) TestingOption {
	return func(cfg *testConfig) {
		cfg.logOutput = w
	}
}
