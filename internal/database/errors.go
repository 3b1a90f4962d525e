package database

import "errors"

var (
	// ErrDatabaseNotFound is returned by Open when the file does not exist
	// and CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("history database not found")

	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("run not found")
)
