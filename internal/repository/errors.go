package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Callers check it
// with errors.Is so they never depend on the storage driver's sentinel.
var ErrNotFound = errors.New("record not found")
