package core

import "errors"

// Common errors.
var (
	ErrReadOnly          = errors.New("store is in read-only mode")
	ErrEmptyID           = errors.New("id cannot be empty")
	ErrInvalidID         = errors.New("invalid sheet id")
	ErrNoteNotFound      = errors.New("note not found")
	ErrDuplicateNote     = errors.New("note id already exists")
	ErrInvalidDimensions = errors.New("dimensions must be positive")
	ErrMalformedSaveFile = errors.New("malformed save file")
)
