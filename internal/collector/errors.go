package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("parse failure")

	// ErrMissingField matches every *MissingFieldError.
	ErrMissingField = errors.New("missing field")

	// ErrUnsupportedOnPlatform is returned by readers and accessors the
	// running platform does not provide.
	ErrUnsupportedOnPlatform = errors.New("not supported on this platform")

	// ErrUnknownInterface is returned when a named interface is absent from
	// the counter table.
	ErrUnknownInterface = errors.New("unknown network interface")
)

// ParseError reports a value that could not be converted to its semantic
// type. Path is the file path, or the descriptor key for /proc/cpuinfo
// fields; Contents is the raw text.
type ParseError struct {
	Path     string
	Contents string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %q: %v", e.Path, e.Contents, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// MissingFieldError reports a required key absent from a descriptor block.
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Key)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// BlockError names the descriptor block that failed in an all-or-nothing
// topology build. Index is the zero-based block position in the input.
type BlockError struct {
	Index int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("cpuinfo block %d: %v", e.Index, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }
