// Package errors defines the error taxonomy of the index builder.
//
// Every typed error unwraps to one of the sentinels below, so callers branch
// with Is on the sentinel and reach for As only when they need the fields.
// Fatal errors (schema detection, I/O) end a job; row-level errors are only
// ever recorded as report samples.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a missing input, sheet, table or manifest.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a rejected flag, manifest key or path.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported marks an input format or content the readers cannot handle.
	ErrUnsupported = errors.New("unsupported")
	// ErrSchemaDetection marks a header with no usable column layout.
	ErrSchemaDetection = errors.New("schema detection failed")
	// ErrReferenceParse marks reference text with no canonical form.
	ErrReferenceParse = errors.New("unparseable reference")
	// ErrRowClassification marks a row that fits no known row shape.
	ErrRowClassification = errors.New("ambiguous row")
)

// NotFoundError names what could not be found.
type NotFoundError struct {
	Resource string // "input", "sheet", "table", "manifest"
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError rejects one flag or manifest key.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// IOError wraps a filesystem failure while opening, reading or committing.
// It unwraps to the underlying error, so os.ErrNotExist and friends still match.
type IOError struct {
	Op   string // "open", "read", "write", "rename", ...
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// UnsupportedError reports an input the readers refuse.
type UnsupportedError struct {
	What   string
	Detail string
}

func (e *UnsupportedError) Error() string {
	if e.Detail == "" {
		return "unsupported " + e.What
	}
	return fmt.Sprintf("unsupported %s: %s", e.What, e.Detail)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// SchemaDetectionError reports a header that cannot drive any index job.
// It is fatal for the source it describes and for nothing else.
type SchemaDetectionError struct {
	Source  string   // input path, when known
	Missing []string // roles no column matched
	Header  []string // labels that were inspected
}

func (e *SchemaDetectionError) Error() string {
	msg := "no column for " + strings.Join(e.Missing, ", ")
	if e.Source == "" {
		return "schema detection failed: " + msg
	}
	return fmt.Sprintf("schema detection failed for %s: %s", e.Source, msg)
}

func (e *SchemaDetectionError) Unwrap() error { return ErrSchemaDetection }

// ReferenceParseError reports reference text that could not be canonicalized.
type ReferenceParseError struct {
	Input  string
	Reason string
}

func (e *ReferenceParseError) Error() string {
	return fmt.Sprintf("unparseable reference %q: %s", e.Input, e.Reason)
}

func (e *ReferenceParseError) Unwrap() error { return ErrReferenceParse }

// RowError describes one dropped row. Reason is the drop reason counted in
// the job report. Err is the cause when there is one (usually a
// *ReferenceParseError); without it the row simply fit no known shape.
type RowError struct {
	Source string
	Row    int // 1-based, counted from the first body row of Source
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteByte(':')
	}
	fmt.Fprintf(&b, "row %d: %s", e.Row, e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RowError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrRowClassification
}

// NewNotFound returns a *NotFoundError.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation returns a *ValidationError.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewIO returns an *IOError.
func NewIO(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// NewUnsupported returns an *UnsupportedError.
func NewUnsupported(what, detail string) *UnsupportedError {
	return &UnsupportedError{What: what, Detail: detail}
}

// NewSchemaDetection returns a *SchemaDetectionError.
func NewSchemaDetection(source string, header, missing []string) *SchemaDetectionError {
	return &SchemaDetectionError{Source: source, Header: header, Missing: missing}
}

// NewReferenceParse returns a *ReferenceParseError.
func NewReferenceParse(input, reason string) *ReferenceParseError {
	return &ReferenceParseError{Input: input, Reason: reason}
}

// NewRow returns a *RowError for row n of source.
func NewRow(source string, n int, reason string, cause error) *RowError {
	return &RowError{Source: source, Row: n, Reason: reason, Err: cause}
}

// Wrap prefixes err with message. It returns nil when err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
