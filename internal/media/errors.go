package media

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedMediaType = errors.New("media: unsupported media type")
	ErrImageDecode          = errors.New("media: image could not be decoded")
	ErrTranscode            = errors.New("media: derivative could not be produced")
	ErrUpload               = errors.New("media: object upload failed")
	ErrAssetInUse           = errors.New("media: asset referenced by published content")
	ErrAssetRequired        = errors.New("media: asset id required")
	ErrEmptyUpload          = errors.New("media: upload is empty")
	ErrUploadTooLarge       = errors.New("media: upload exceeds size limit")
	ErrInvalidPlan          = errors.New("media: invalid breakpoint plan")
)

// UnsupportedMediaTypeError reports content whose sniffed type is not an
// accepted image format.
type UnsupportedMediaTypeError struct {
	MimeType string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("media: unsupported media type %q", e.MimeType)
}

func (e *UnsupportedMediaTypeError) Unwrap() error { return ErrUnsupportedMediaType }

// TranscodeError reports a breakpoint that failed to resize or encode,
// including breakpoints that ran out of time.
type TranscodeError struct {
	Breakpoint string
	Err        error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("media: transcode %s: %v", e.Breakpoint, e.Err)
}

func (e *TranscodeError) Unwrap() []error { return []error{ErrTranscode, e.Err} }

// UploadError reports an object that could not be written to storage.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("media: upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() []error { return []error{ErrUpload, e.Err} }

// AssetInUseError blocks deletion of an asset that published blocks still
// reference.
type AssetInUseError struct {
	AssetID  uuid.UUID
	BlockIDs []uuid.UUID
}

func (e *AssetInUseError) Error() string {
	ids := make([]string, len(e.BlockIDs))
	for i, id := range e.BlockIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("media: asset %s referenced by published blocks [%s]", e.AssetID, strings.Join(ids, ", "))
}

func (e *AssetInUseError) Unwrap() error { return ErrAssetInUse }

// NotFoundError is returned when an asset cannot be located.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("media asset %q not found", e.Key)
}

// IsNotFound reports whether err signals a missing asset.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// StorageError tags a persistence failure with the operation that produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("media: %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var notFound *NotFoundError
	var existing *StorageError
	if errors.As(err, &notFound) || errors.As(err, &existing) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
