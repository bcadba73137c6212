package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-catalog/pkg/catalog"
	"github.com/tendant/simple-catalog/pkg/catalog/objectkey"
	"github.com/tendant/simple-catalog/pkg/catalog/repo/memory"
	mongorepo "github.com/tendant/simple-catalog/pkg/catalog/repo/mongo"
	pgrepo "github.com/tendant/simple-catalog/pkg/catalog/repo/postgres"
	fsstorage "github.com/tendant/simple-catalog/pkg/catalog/storage/fs"
	memorystorage "github.com/tendant/simple-catalog/pkg/catalog/storage/memory"
	s3storage "github.com/tendant/simple-catalog/pkg/catalog/storage/s3"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Load constructs a Config by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		StoreURL:      "memory://",
		MongoDatabase: "catalog",
		PGSchema:      "catalog",
		BlobURL:       "memory://",
		ImagePrefix:   objectkey.DefaultPrefix,
		MaxImageBytes: catalog.DefaultMaxImageBytes,
		PasswordCost:  bcrypt.DefaultCost,
		AWSRegion:     "us-east-1",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Config holds the settings needed to assemble a catalog. Fields carry
// cleanenv tags so WithEnv can populate them.
type Config struct {
	// Metadata store: "memory://", a mongodb:// / mongodb+srv:// URI or a
	// postgres:// / postgresql:// URL
	StoreURL      string `env:"CATALOG_STORE_URL" env-description:"metadata store (memory://, mongodb://... or postgres://...)"`
	MongoDatabase string `env:"CATALOG_MONGO_DB" env-description:"MongoDB database name"`
	PGSchema      string `env:"CATALOG_PG_SCHEMA" env-description:"Postgres schema holding the catalog tables"`
	PGMigrate     bool   `env:"CATALOG_PG_MIGRATE" env-description:"create the Postgres tables on startup"`

	// Blob store: "memory://", "file:///dir" or "s3://bucket?region=..&endpoint=..&path_style=true"
	BlobURL           string `env:"CATALOG_BLOB_URL" env-description:"blob store (memory://, file:///dir, s3://bucket)"`
	BlobPublicBaseURL string `env:"CATALOG_BLOB_PUBLIC_URL" env-description:"base URL for public image links"`

	// Image policy
	ImagePrefix   string `env:"CATALOG_IMAGE_PREFIX" env-description:"object key prefix for product images"`
	MaxImageBytes int    `env:"CATALOG_MAX_IMAGE_BYTES" env-description:"largest accepted image in bytes"`

	PasswordCost int `env:"CATALOG_PASSWORD_COST" env-description:"bcrypt cost for user passwords"`

	// S3 settings; the bucket comes from BlobURL
	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint         string `env:"AWS_S3_ENDPOINT"`
	S3UsePathStyle     bool   `env:"AWS_S3_USE_PATH_STYLE"`
	S3CreateBucket     bool   `env:"AWS_S3_CREATE_BUCKET"`

	LogLevel  string `env:"LOG_LEVEL" env-description:"debug, info, warn or error"`
	LogFormat string `env:"LOG_FORMAT" env-description:"text or json"`
}

// StoreType returns "memory", "mongo" or "postgres" for StoreURL.
func (c *Config) StoreType() string {
	switch {
	case c.StoreURL == "" || c.StoreURL == "memory" || c.StoreURL == "memory://":
		return "memory"
	case strings.HasPrefix(c.StoreURL, "mongodb://"), strings.HasPrefix(c.StoreURL, "mongodb+srv://"):
		return "mongo"
	case strings.HasPrefix(c.StoreURL, "postgres://"), strings.HasPrefix(c.StoreURL, "postgresql://"):
		return "postgres"
	default:
		return ""
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.StoreType() == "" {
		return fmt.Errorf("unsupported store URL %q (use 'memory://', 'mongodb://...' or 'postgres://...')", c.StoreURL)
	}
	if c.StoreType() == "mongo" && c.MongoDatabase == "" {
		return errors.New("mongo database name is required")
	}
	if _, err := ParseBlobURL(c.BlobURL); err != nil {
		return err
	}
	if c.MaxImageBytes <= 0 {
		return errors.New("max image bytes must be positive")
	}
	if c.PasswordCost < bcrypt.MinCost || c.PasswordCost > bcrypt.MaxCost {
		return fmt.Errorf("password cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got %q", c.LogFormat)
	}
	return nil
}

// Closer releases resources held by a built component.
type Closer func(ctx context.Context) error

func noopCloser(context.Context) error { return nil }

// BuildRepository creates the metadata store. For MongoDB it connects,
// ensures indexes, and returns a closer that disconnects the client. For
// Postgres it opens a pool on PGSchema and optionally migrates the tables.
func (c *Config) BuildRepository(ctx context.Context) (catalog.Repository, Closer, error) {
	switch c.StoreType() {
	case "memory":
		return memory.New(), noopCloser, nil
	case "mongo":
		client, err := mongorepo.Connect(ctx, c.StoreURL)
		if err != nil {
			return nil, nil, err
		}
		repo := mongorepo.New(client.Database(c.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}
		return repo, client.Disconnect, nil
	case "postgres":
		pool, err := pgrepo.Connect(ctx, c.StoreURL, c.PGSchema)
		if err != nil {
			return nil, nil, err
		}
		repo := pgrepo.New(pool)
		if c.PGMigrate {
			if err := repo.Migrate(ctx); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return repo, func(context.Context) error {
			pool.Close()
			return nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store URL %q", c.StoreURL)
	}
}

// BuildBlobStore creates the blob store named by BlobURL.
func (c *Config) BuildBlobStore(ctx context.Context) (catalog.BlobStore, error) {
	target, err := ParseBlobURL(c.BlobURL)
	if err != nil {
		return nil, err
	}

	switch target.Type {
	case "memory":
		if c.BlobPublicBaseURL != "" {
			return memorystorage.NewWithBaseURL(c.BlobPublicBaseURL), nil
		}
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   target.Path,
			URLPrefix: c.BlobPublicBaseURL,
		})
	case "s3":
		region := c.AWSRegion
		if target.Region != "" {
			region = target.Region
		}
		endpoint := c.S3Endpoint
		if target.Endpoint != "" {
			endpoint = target.Endpoint
		}
		return s3storage.New(ctx, s3storage.Config{
			Region:                 region,
			Bucket:                 target.Bucket,
			AccessKeyID:            c.AWSAccessKeyID,
			SecretAccessKey:        c.AWSSecretAccessKey,
			Endpoint:               endpoint,
			UsePathStyle:           c.S3UsePathStyle || target.PathStyle,
			PublicBaseURL:          c.BlobPublicBaseURL,
			CreateBucketIfNotExist: c.S3CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported blob store type %q", target.Type)
	}
}

// Catalog bundles the assembled components.
type Catalog struct {
	Service  catalog.Service
	Blobs    *catalog.BlobManager
	Workflow *catalog.ImageWorkflow
	Logger   *slog.Logger

	close Closer
}

// Close releases the metadata store connection.
func (c *Catalog) Close(ctx context.Context) error {
	if c.close == nil {
		return nil
	}
	return c.close(ctx)
}

// BuildService assembles the catalog service, blob manager and image workflow
// from the configuration. A nil logger uses NewLogger.
func (c *Config) BuildService(ctx context.Context, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		var err error
		logger, err = c.NewLogger(nil)
		if err != nil {
			return nil, err
		}
	}

	repo, closer, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.BuildBlobStore(ctx)
	if err != nil {
		_ = closer(ctx)
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	svc, err := catalog.New(
		catalog.WithRepository(repo),
		catalog.WithLogger(logger),
		catalog.WithPasswordCost(c.PasswordCost),
	)
	if err != nil {
		_ = closer(ctx)
		return nil, err
	}

	blobs := catalog.NewBlobManager(store,
		catalog.WithKeyGenerator(objectkey.NewTimestampGenerator(c.ImagePrefix)),
		catalog.WithBlobLogger(logger),
		catalog.WithMaxImageBytes(c.MaxImageBytes),
	)

	logger.Info("catalog configured", "store", c.StoreType(), "blob_url", c.BlobURL)

	return &Catalog{
		Service:  svc,
		Blobs:    blobs,
		Workflow: catalog.NewImageWorkflow(svc, blobs),
		Logger:   logger,
		close:    closer,
	}, nil
}
