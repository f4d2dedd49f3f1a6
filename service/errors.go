package services

import "errors"

var (
	// ErrValidation marks client faults rejected before any remote call.
	ErrValidation = errors.New("validation failed")
	// ErrDocumentNotFound is returned when a file is absent from storage.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIndexNotFound is returned when the search index does not exist yet.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexAlreadyExists is returned when index creation loses a race.
	ErrIndexAlreadyExists = errors.New("index already exists")
	// ErrCapabilityUnsupported is returned when the engine rejects a feature
	// such as semantic configuration or semantic ranking.
	ErrCapabilityUnsupported = errors.New("capability not supported")
	// ErrUnsupportedFormat is returned when the analysis service cannot read a document.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrQuotaExceeded is returned when the analysis service refuses for quota or rate limits.
	ErrQuotaExceeded = errors.New("analysis quota exceeded")
	// ErrStorageUnavailable is returned when the blob store cannot be queried.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
