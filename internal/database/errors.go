package database

import "errors"

// ErrNotFound is returned when a requested row does not exist. Surfaced as a
// client error by the API layer.
var ErrNotFound = errors.New("not found")
