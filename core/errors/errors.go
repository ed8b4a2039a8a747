// Package errors provides the error taxonomy shared by the outline core.
//
// Canonicalization errors signal a modeling gap and must never be swallowed.
// Lookup and operation errors are recoverable: they are returned as values so a
// long-lived session keeps running after a bad request.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a node or resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported node type or format
	ErrUnsupported = errors.New("unsupported")
	// ErrInvalidOperation indicates a transform the target cannot perform
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrSuperseded indicates work discarded because a newer document version arrived
	ErrSuperseded = errors.New("superseded by a newer version")
)

// CanonicalizationError is returned when a node cannot be reduced to a
// canonical form, typically because its type is not one of the known variants.
type CanonicalizationError struct {
	NodeType string // Dynamic type of the offending node
	Reason   string
	Err      error
}

func (e *CanonicalizationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("canonicalize %s: %s", e.NodeType, e.Reason)
	}
	return fmt.Sprintf("canonicalize: unsupported node type %s", e.NodeType)
}

func (e *CanonicalizationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// MalformedIdentifierError reports a string that is not a valid type:hint:hash id.
type MalformedIdentifierError struct {
	Input   string
	Message string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed node id %q: %s", e.Input, e.Message)
}

func (e *MalformedIdentifierError) Unwrap() error {
	return ErrInvalidInput
}

// NodeNotFoundError represents a failed lookup by id or position.
type NodeNotFoundError struct {
	ID        string // Identifier as supplied by the caller
	Operation string // Operation that needed the node, if any
	Err       error
}

func (e *NodeNotFoundError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: node not found: %s", e.Operation, e.ID)
	}
	return fmt.Sprintf("node not found: %s", e.ID)
}

func (e *NodeNotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// InvalidOperationError reports an operation the target does not support at its
// current structural position.
type InvalidOperationError struct {
	Operation string
	ID        string
	Reason    string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Operation, e.ID, e.Reason)
}

func (e *InvalidOperationError) Unwrap() error {
	return ErrInvalidOperation
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a failure to read a source document
type ParseError struct {
	Format  string // Format being parsed (e.g., "markdown", "yaml")
	Path    string // File path, if applicable
	Line    int    // 1-based line, 0 when unknown
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if loc != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, loc, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewUnsupportedNodeType creates a CanonicalizationError for an unknown variant.
func NewUnsupportedNodeType(nodeType string) *CanonicalizationError {
	return &CanonicalizationError{NodeType: nodeType}
}

// NewMalformedIdentifier creates a MalformedIdentifierError
func NewMalformedIdentifier(input, message string) *MalformedIdentifierError {
	return &MalformedIdentifierError{Input: input, Message: message}
}

// NewNodeNotFound creates a NodeNotFoundError
func NewNodeNotFound(op, id string) *NodeNotFoundError {
	return &NodeNotFoundError{ID: id, Operation: op}
}

// NewInvalidOperation creates an InvalidOperationError
func NewInvalidOperation(op, id, reason string) *InvalidOperationError {
	return &InvalidOperationError{Operation: op, ID: id, Reason: reason}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path string, line int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Line:    line,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
