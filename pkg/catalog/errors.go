package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below unwraps to one of them so callers
// can classify with errors.Is.
var (
	// ErrValidation indicates a missing or malformed field, or a reference to
	// a category that does not exist
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an identifier that does not resolve
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the operation collides with existing state
	ErrConflict = errors.New("conflict")

	// ErrStorage indicates a metadata store I/O failure
	ErrStorage = errors.New("storage failure")

	// ErrBlob indicates a blob store I/O failure
	ErrBlob = errors.New("blob storage failure")

	// ErrObjectNotFound is returned by blob stores for a missing object key
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidCredentials indicates an unknown username or a wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError reports an identifier that does not resolve. Soft-deleted
// products are reported as not found.
type NotFoundError struct {
	Entity Entity
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConflictError reports a duplicate username or a blocked deletion. Count
// carries the number of blocking records when relevant.
type ConflictError struct {
	Entity Entity
	ID     string
	Reason string
	Count  int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// StorageError represents a metadata store failure
type StorageError struct {
	Collection string
	Key        string
	Op         string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s in %s: %v", e.Op, e.Key, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// BlobError represents a blob store failure
type BlobError struct {
	Key string
	Op  string
	Err error
}

func (e *BlobError) Error() string {
	return fmt.Sprintf("blob operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *BlobError) Unwrap() []error {
	return []error{ErrBlob, e.Err}
}

// blockedDeletion builds the conflict returned when products still reference
// a category.
func blockedDeletion(categoryID string, count int) *ConflictError {
	noun := "products"
	if count == 1 {
		noun = "product"
	}
	return &ConflictError{
		Entity: EntityCategory,
		ID:     categoryID,
		Reason: fmt.Sprintf("cannot delete category with %d %s", count, noun),
		Count:  count,
	}
}
