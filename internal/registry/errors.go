package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrForbidden          = errors.New("access denied")
	ErrUnconfirmed        = errors.New("removal not confirmed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DuplicateTagError is returned when a requested asset tag is already used
// inside the same site.
type DuplicateTagError struct {
	Site string
	Tag  string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("tag %q already exists in site %q", e.Tag, e.Site)
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid or missing fields: " + strings.Join(e.Fields, ", ")
}

// StoreError wraps a failure of the persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// UploadError wraps a failure of the blob storage.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string { return "upload " + e.Name + ": " + e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }
