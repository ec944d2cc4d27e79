package errors

import (
	"errors"
	"fmt"
)

// Standard errors
var (
	// ErrNilSubject is returned when a subject-requiring operation receives a nil subject
	ErrNilSubject = errors.New("subject must not be nil")

	// ErrNilContextSet is returned when a context calculator produces a nil context set
	ErrNilContextSet = errors.New("calculator returned a nil context set")

	// ErrEmptyContextKey is returned when a context entry has an empty key
	ErrEmptyContextKey = errors.New("context key must not be empty")

	// ErrEmptyContextValue is returned when a context entry has an empty value
	ErrEmptyContextValue = errors.New("context value must not be empty")

	// ErrLuaExecution is returned when there's an error executing a Lua script
	ErrLuaExecution = errors.New("lua script execution error")
)

// Wrap wraps an error with additional context
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience function that wraps errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target, and if so, sets
// target to that error value and returns true. Otherwise, it returns false.
// This is a convenience function that wraps errors.As
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
