// Package apperr defines the error kinds shared across the memo pipeline.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrLocked   = errors.New("another instance holds the lock")

	// ErrConfig is fatal and only returned during startup.
	ErrConfig = errors.New("config")

	// Pipeline errors are fatal to a single memo, never to the process.
	ErrUpload     = errors.New("upload")
	ErrGeneration = errors.New("generation")
	ErrWrite      = errors.New("note write")
	ErrArchive    = errors.New("archive")
)
