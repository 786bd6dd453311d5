package summary

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrFormat       = errors.New("format error")
	ErrMissingField = errors.New("missing field")
	ErrRange        = errors.New("value out of range")
	ErrConflict     = errors.New("conflicting inputs")
	ErrIO           = errors.New("i/o error")
	ErrArithmetic   = errors.New("arithmetic error")
)

// Error describes a failure to read, validate or merge a summary. File and
// Path identify the offending document and field; either may be empty when
// the failure is not tied to one.
type Error struct {
	Kind error
	File string
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.File == "" {
		return e.Msg
	}
	return e.File + ": " + e.Msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an *Error of the given kind. An error matched by %w in
// format becomes the wrapped cause.
func Errorf(kind error, file, path, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{
		Kind: kind,
		File: file,
		Path: path,
		Msg:  err.Error(),
		Err:  errors.Unwrap(err),
	}
}
