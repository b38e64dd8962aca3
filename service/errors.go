package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an upstream resource (event, return, due
// returns) does not exist. Callers wrap it with the identifiers involved.
var ErrNotFound = errors.New("not found")

// WriteError indicates the scratch destination could not be opened or written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError indicates the upload source stream failed before completion.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read upload stream: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
