package blob

import "errors"

var (
	ErrInvalidPath         = errors.New("invalid path")
	ErrNotFound            = errors.New("blob not found")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrFailedToLoadConfig  = errors.New("failed to load AWS config")
	ErrFailedToWriteBlob   = errors.New("failed to write blob")
	ErrFailedToReadBlob    = errors.New("failed to read blob")
	ErrFailedToDeleteBlob  = errors.New("failed to delete blob")
	ErrAccessDenied        = errors.New("access denied")
	ErrOperationTimeout    = errors.New("operation timed out")
	ErrOperationCanceled   = errors.New("operation canceled")
)
