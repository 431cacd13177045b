package pages

import (
	"errors"
	"fmt"
)

var (
	ErrSlugRequired = errors.New("pages: slug required")
	ErrSlugInvalid  = errors.New("pages: slug contains invalid characters")
	ErrSlugExists   = errors.New("pages: slug already exists")
	ErrNameRequired = errors.New("pages: name required")
	ErrPageRequired = errors.New("pages: page id required")
	ErrUnknownView  = errors.New("pages: unknown view")
)

// PageNotFoundError is returned when a page cannot be located.
type PageNotFoundError struct {
	Key string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %q not found", e.Key)
}

// IsNotFound reports whether err signals a missing page.
func IsNotFound(err error) bool {
	var notFound *PageNotFoundError
	return errors.As(err, &notFound)
}

// StorageError tags a persistence failure with the operation that produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("pages: %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var notFound *PageNotFoundError
	var existing *StorageError
	if errors.As(err, &notFound) || errors.As(err, &existing) || errors.Is(err, ErrSlugExists) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
