package model

import (
	"errors"
	"fmt"
)

// MalformedTreeError reports a structural violation in tree data. Path is the
// sequence of branches taken from the root ("root", "root.left", ...).
type MalformedTreeError struct {
	Path   string
	Reason string
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("malformed tree at %s: %s", e.Path, e.Reason)
}

// MissingInputError reports a required input that was not supplied or could
// not be resolved.
type MissingInputError struct {
	Field  string
	Reason string
}

func (e *MissingInputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing input: %s", e.Field)
	}
	return fmt.Sprintf("missing input: %s: %s", e.Field, e.Reason)
}

// InvalidInputError reports an input that was supplied but is out of range.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

var ErrNilClassifier = errors.New("no classifier configured")

func malformed(path, format string, args ...any) error {
	return &MalformedTreeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
