package store

import "errors"

var (
	// ErrMissing is returned when the target key of a fetch-dependent
	// operation is not present.
	ErrMissing = errors.New("store: record missing")

	// ErrUnavailable is returned once the dispatcher worker has
	// terminated. It is fatal for the Store instance: every later call
	// fails the same way and a new Store must be opened to recover.
	ErrUnavailable = errors.New("store: dispatcher unavailable")
)
