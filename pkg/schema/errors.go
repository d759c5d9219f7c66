package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSchema marks documents that fail the structural checks.
	ErrInvalidSchema = errors.New("schema: invalid schema")
	// ErrUnsupportedVersion marks documents with an unknown version number.
	ErrUnsupportedVersion = errors.New("schema: unsupported version")
)

// Reasons reported by ParseError.
const (
	ReasonInvalidFormat      = "Invalid schema format"
	ReasonInvalidComponents  = "Invalid components in schema"
	ReasonInvalidSteps       = "Invalid steps in schema"
	ReasonUnsupportedVersion = "Unsupported schema version"
)

// ParseError describes why a document was rejected. Reason is a
// human-readable summary suitable for end users; Path locates the offending
// element ("components[2].props") when known.
type ParseError struct {
	Reason string
	Path   string
	Err    error
	Cause  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s (at %s)", msg, e.Path)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the sentinel and the underlying decode error.
func (e *ParseError) Unwrap() []error {
	if e == nil {
		return nil
	}
	var out []error
	if e.Err != nil {
		out = append(out, e.Err)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

func invalid(reason, path string) *ParseError {
	return &ParseError{Reason: reason, Path: path, Err: ErrInvalidSchema}
}
