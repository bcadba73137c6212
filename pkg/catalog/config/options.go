package config

import (
	"fmt"
)

// WithStoreURL selects the metadata store
func WithStoreURL(storeURL string) Option {
	return func(c *Config) error {
		c.StoreURL = storeURL
		return nil
	}
}

// WithMongoDatabase sets the MongoDB database name
func WithMongoDatabase(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("mongo database name cannot be empty")
		}
		c.MongoDatabase = name
		return nil
	}
}

// WithPostgresSchema sets the Postgres schema used as search_path
func WithPostgresSchema(schema string) Option {
	return func(c *Config) error {
		if schema == "" {
			return fmt.Errorf("postgres schema cannot be empty")
		}
		c.PGSchema = schema
		return nil
	}
}

// WithBlobURL selects the blob store
func WithBlobURL(blobURL string) Option {
	return func(c *Config) error {
		c.BlobURL = blobURL
		return nil
	}
}

// WithBlobPublicBaseURL sets the base of public image URLs
func WithBlobPublicBaseURL(base string) Option {
	return func(c *Config) error {
		c.BlobPublicBaseURL = base
		return nil
	}
}

// WithImagePrefix sets the object key prefix for product images
func WithImagePrefix(prefix string) Option {
	return func(c *Config) error {
		c.ImagePrefix = prefix
		return nil
	}
}

// WithPasswordCost sets the bcrypt cost
func WithPasswordCost(cost int) Option {
	return func(c *Config) error {
		c.PasswordCost = cost
		return nil
	}
}

// WithLogging sets the log level and format
func WithLogging(level, format string) Option {
	return func(c *Config) error {
		if level != "" {
			c.LogLevel = level
		}
		if format != "" {
			c.LogFormat = format
		}
		return nil
	}
}
