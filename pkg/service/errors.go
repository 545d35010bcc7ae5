package service

import "errors"

// Common errors for the service package.
var (
	// ErrInvalidPath indicates an endpoint path that failed validation.
	ErrInvalidPath = errors.New("invalid service path")
	// ErrDuplicatePath indicates the path is already registered.
	ErrDuplicatePath = errors.New("service path already in use")
	// ErrInvalidWaitTime indicates a zero or negative wait time.
	ErrInvalidWaitTime = errors.New("wait time must be positive")
	// ErrNilFactory indicates a nil host factory was supplied.
	ErrNilFactory = errors.New("nil host factory")
	// ErrNilHost indicates a factory returned a nil host.
	ErrNilHost = errors.New("factory returned nil host")
)
