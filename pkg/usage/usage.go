// Package usage defines the error type for malformed command-line input.
//
// Every validation failure in argument resolution is reported as a *usage.Error
// so that the command layer can distinguish "print the usage message and exit"
// from genuine runtime failures.
package usage

import (
	"errors"
	"fmt"
)

// Error describes command-line input the tool cannot act on.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds a *Error with a formatted message.
func Errorf(format string, a ...any) error {
	return &Error{Message: fmt.Sprintf(format, a...)}
}

// Is reports whether err is (or wraps) a usage error.
func Is(err error) bool {
	var ue *Error
	return errors.As(err, &ue)
}
