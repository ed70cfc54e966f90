package db

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("db: not found")
	// ErrUniqueViolation is returned when an insert collides with an existing key
	ErrUniqueViolation = errors.New("db: unique violation")
	// ErrStaleWrite is returned when a guarded update finds a different status than expected
	ErrStaleWrite = errors.New("db: stale write")
)
