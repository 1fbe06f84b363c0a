package domain

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrUploadFailed       = errors.New("file upload to storage failed")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductNameRequired = errors.New("product name is required")
	ErrInvalidCategory     = errors.New("a valid category is required")
	ErrTaskNotFound        = errors.New("upload task not found")
	ErrNoFiles             = errors.New("at least one file is required")
	ErrMappingCount        = errors.New("one column mapping is required per file")
	ErrQueueFull           = errors.New("ingestion queue is full, try again later")
)

// File admission errors. Messages are shown to the user verbatim.
var (
	ErrTooManyFiles        = errors.New("maximum file count exceeded")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrContentMismatch     = errors.New("file content does not match extension")
)

// Preview parse errors.
var (
	ErrUnreadableFile = errors.New("file is unreadable or corrupt")
	ErrEmptyFile      = errors.New("file is empty")
	ErrNoHeaders      = errors.New("no valid headers")
	ErrParseFailed    = errors.New("failed to parse file")
)

// Column mapping errors.
var (
	ErrMappingRequired  = errors.New("review and date are required")
	ErrMappingDuplicate = errors.New("review and date must be different columns")
	ErrUnknownColumn    = errors.New("column not found in file headers")
)

// Queue and submission errors.
var (
	ErrDuplicateFile        = errors.New("file is already queued")
	ErrFilesNotMapped       = errors.New("every queued file needs review and date columns")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrProductRequired      = errors.New("product metadata or product id is required")
)
