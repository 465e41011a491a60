package repository

import "errors"

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate means an insert hit a unique constraint or idempotency key.
	ErrDuplicate = errors.New("repository: duplicate entry")
	// ErrConflict means a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("repository: write conflict")
	// ErrCapacityReached means an approval would exceed the meetup capacity.
	ErrCapacityReached = errors.New("repository: meetup capacity reached")
)
