// Package catalog provides the consistency layer of a product catalog built
// over a schemaless metadata store and a blob store for product images.
//
// The Service interface orchestrates products, categories and users on top of
// a pluggable Repository (memory, MongoDB) and appends an audit entry for
// every committed mutation. Image uploads and cleanup live in BlobManager and
// ImageWorkflow, so the Service itself never talks to blob storage. Blob
// backends (memory, filesystem, S3) are provided under subpackages.
//
// Consistency Model
//
// The two stores share no transaction. Writes are ordered so that a failure
// leaves, at worst, an orphaned blob and never a product pointing at a
// missing image: new images are uploaded before the metadata write, and old
// images are removed only after the metadata write has committed. Removal is
// best effort and logged on failure.
//
// Soft-deleted products keep their record for audit purposes and are hidden
// from every user-facing read path.
package catalog
