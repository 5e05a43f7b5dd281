package store

import "errors"

// ErrNotFound is returned when a requested row does not exist. Callers in
// the auth path treat it as a normal outcome, not a fault.
var ErrNotFound = errors.New("not found")
