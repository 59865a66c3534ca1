// Package encoding provides the generic APIs shared by the parquet value
// encodings implemented in its sub-packages.
package encoding

import (
	"errors"
	"fmt"

	"github.com/rionmonster/hardwood/format"
)

var (
	// ErrInvalidArgument is an error returned when one or more arguments
	// passed to the encoding functions are incorrect.
	//
	// This error may be wrapped with specific information about the problem
	// and applications are expected to use errors.Is for comparisons.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error constructs an error which wraps err and indicates that it originated
// from the given encoding.
func Error(e format.Encoding, err error) error {
	return fmt.Errorf("%s: %w", e, err)
}

// Errorf is like Error but constructs the error message from the given format
// and arguments.
func Errorf(e format.Encoding, msg string, args ...interface{}) error {
	return Error(e, fmt.Errorf(msg, args...))
}

// ErrInvalidInputSize constructs an error indicating that decoding failed due
// to the size of the input.
func ErrInvalidInputSize(e format.Encoding, typ string, size int) error {
	return Errorf(e, "cannot decode %s from input of size %d: %w", typ, size, ErrInvalidArgument)
}

// ErrInvalidBitWidth constructs an error indicating that decoding failed due
// to an invalid bit width.
func ErrInvalidBitWidth(e format.Encoding, bitWidth uint) error {
	return Errorf(e, "invalid bit width %d: %w", bitWidth, ErrInvalidArgument)
}
