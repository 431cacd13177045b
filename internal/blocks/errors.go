package blocks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnknownBlockType   = errors.New("blocks: unknown block type")
	ErrFieldValidation    = errors.New("blocks: payload failed validation")
	ErrPositionConflict   = errors.New("blocks: concurrent reorder could not be serialised")
	ErrPartialPublish     = errors.New("blocks: page publish stopped before completion")
	ErrPageRequired       = errors.New("blocks: page id required")
	ErrBlockRequired      = errors.New("blocks: block id required")
	ErrTypeRequired       = errors.New("blocks: block type required")
	ErrInvalidShape       = errors.New("blocks: invalid block shape")
	ErrDuplicateBlockType = errors.New("blocks: block type already registered")
	ErrEditSettled        = errors.New("blocks: draft edit already committed")
)

// NotFoundError is returned when a block or its owning page cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// UnknownBlockTypeError reports a type name outside the registry's closed set.
type UnknownBlockTypeError struct {
	Type string
}

func (e *UnknownBlockTypeError) Error() string {
	return fmt.Sprintf("blocks: unknown block type %q", e.Type)
}

func (e *UnknownBlockTypeError) Unwrap() error { return ErrUnknownBlockType }

// FieldError describes a single violating field. Path uses dotted notation with
// bracketed indexes for array elements, e.g. entries[1].quote.
type FieldError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldValidationError lists every field that failed validation for a payload.
type FieldValidationError struct {
	BlockType string       `json:"block_type"`
	Fields    []FieldError `json:"fields"`
}

func (e *FieldValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Path+": "+field.Message)
	}
	return fmt.Sprintf("blocks: %s payload invalid (%s)", e.BlockType, strings.Join(parts, "; "))
}

func (e *FieldValidationError) Unwrap() error { return ErrFieldValidation }

// Field returns the error recorded for path, if any.
func (e *FieldValidationError) Field(path string) (FieldError, bool) {
	for _, field := range e.Fields {
		if field.Path == path {
			return field, true
		}
	}
	return FieldError{}, false
}

// PositionConflictError signals that a structural mutation raced another one on
// the same page. Callers should retry.
type PositionConflictError struct {
	PageID uuid.UUID
	Err    error
}

func (e *PositionConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("blocks: position conflict on page %s: %v", e.PageID, e.Err)
	}
	return fmt.Sprintf("blocks: position conflict on page %s", e.PageID)
}

func (e *PositionConflictError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPositionConflict}
	}
	return []error{ErrPositionConflict, e.Err}
}

// PartialPublishFailureError reports a page publish where at least one block
// could not be promoted. Blocks listed in Succeeded stay published.
type PartialPublishFailureError struct {
	PageID    uuid.UUID
	Succeeded []uuid.UUID
	Failed    []uuid.UUID
	Skipped   []uuid.UUID
	Cause     error
}

func (e *PartialPublishFailureError) Error() string {
	return fmt.Sprintf("blocks: page %s publish incomplete: %d published, %d failed, %d skipped: %v",
		e.PageID, len(e.Succeeded), len(e.Failed), len(e.Skipped), e.Cause)
}

func (e *PartialPublishFailureError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrPartialPublish}
	}
	return []error{ErrPartialPublish, e.Cause}
}

// Pending returns the blocks a retry should target, failed ones first.
func (e *PartialPublishFailureError) Pending() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(e.Failed)+len(e.Skipped))
	out = append(out, e.Failed...)
	return append(out, e.Skipped...)
}

// StorageError tags a persistence failure with the operation that produced it.
// The original error is preserved for errors.Is/As.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("blocks: %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var notFound *NotFoundError
	var conflict *PositionConflictError
	var existing *StorageError
	if errors.As(err, &notFound) || errors.As(err, &conflict) || errors.As(err, &existing) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
