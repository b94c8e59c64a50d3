package file

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrInvalidKey         = errors.New("invalid object key")
	ErrMIMETypeNotAllowed = errors.New("MIME type is not allowed")
	ErrInvalidSize        = errors.New("file size is out of range")
	ErrFailedToPresign    = errors.New("failed to presign request")

	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrOperationCanceled  = errors.New("operation canceled")
)
