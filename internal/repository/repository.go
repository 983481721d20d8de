package repository

import "errors"

// Storage-level sentinels. Postgres implementations translate driver errors
// into these so services never inspect driver error codes themselves.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)
