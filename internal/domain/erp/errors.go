package erp

import "errors"

// ErrNotFound indicates the requested internal record does not exist.
var ErrNotFound = errors.New("erp: record not found")
