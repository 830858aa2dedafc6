// Package errs contains the error taxonomy shared by the storage, repository,
// settlement and service layers. Transport code maps these to status codes.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller lacks membership, ownership or creator rights.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates a missing or invalid required field.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a duplicate unique value or an already-present member.
	ErrConflict = errors.New("conflict")

	// ErrStorage indicates a durable I/O or serialization failure.
	ErrStorage = errors.New("storage failure")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")
)

// StorageError describes a failed store operation. It matches ErrStorage
// with errors.Is and unwraps to the underlying cause.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports ErrStorage as a match so callers need not know the concrete type.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NotFound returns an error wrapping ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Forbidden returns an error wrapping ErrForbidden with a formatted message.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

// Validation returns an error wrapping ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Conflict returns an error wrapping ErrConflict with a formatted message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}
