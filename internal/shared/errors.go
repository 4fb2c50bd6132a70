package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrValidation indicates bad caller input; nothing was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the operation clashes with existing state.
	ErrConflict = errors.New("conflict")
)
