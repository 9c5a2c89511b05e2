package draw

import "errors"

var (
	// ErrNotFound marks a round that is absent from the snapshot.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks caller input that failed validation.
	ErrInvalidArgument = errors.New("invalid argument")
)
