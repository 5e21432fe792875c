// Package alerr provides the coded error type used outside the modeling core.
// Errors carry a stable machine-readable code, structured context, help lines,
// and an optional wrapped cause.
package alerr

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Code is a stable, machine-readable error code.
// Format: E{category}{number}.
type Code string

const (
	// Model errors (E1xxx)
	ErrEntityNotFound       Code = "E1001" // No entity with the given id
	ErrRelationshipNotFound Code = "E1002" // No relationship with the given id
	ErrInvalidCardinality   Code = "E1003" // Cardinality outside {0, 1, n}
	ErrInvariant            Code = "E1004" // Schema invariant violated

	// Resolver protocol errors (E2xxx)
	ErrSessionState Code = "E2001" // Operation not legal in the session's current state
	ErrStaleSession Code = "E2002" // Relationship disappeared while the session was open

	// Script errors (E3xxx)
	ErrScriptExecution Code = "E3001" // Script raised or failed to compile
	ErrScriptTimeout   Code = "E3002" // Script exceeded its time budget
	ErrScriptArgument  Code = "E3003" // Script passed a malformed argument

	// Configuration and I/O errors (E4xxx)
	ErrConfigInvalid Code = "E4001" // Config file malformed or out of range
	ErrFileRead      Code = "E4002" // File could not be read
	ErrFileWrite     Code = "E4003" // File could not be written
	ErrFileWatch     Code = "E4004" // File could not be watched for changes

	// Internal errors (E9xxx)
	EInternalError Code = "E9001"
)

// Error is the structured error type.
type Error struct {
	code    Code
	message string
	context map[string]any
	cause   error
	stack   string
}

// Error returns the formatted error string.
// Format:
//
//	[E1002] relationship not found
//	  relationship: rel-1
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Sorted for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}

	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// GetCause returns the underlying cause error.
func (e *Error) GetCause() error {
	return e.cause
}

// GetStack returns the stack trace captured at construction.
func (e *Error) GetStack() string {
	return e.stack
}

// With adds a key-value pair to the error context.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithEntity adds entity context to the error.
func (e *Error) WithEntity(id string) *Error {
	return e.With("entity", id)
}

// WithRelationship adds relationship context to the error.
func (e *Error) WithRelationship(id string) *Error {
	return e.With("relationship", id)
}

// WithFile adds file location context to the error.
func (e *Error) WithFile(path string, line int) *Error {
	e.With("file", path)
	if line > 0 {
		e.With("line", line)
	}
	return e
}

// WithColumn adds a column number to the location context.
func (e *Error) WithColumn(column int) *Error {
	if column > 0 {
		e.With("column", column)
	}
	return e
}

// WithSource adds the offending source line for display.
func (e *Error) WithSource(line string) *Error {
	if line != "" {
		e.With("source", line)
	}
	return e
}

// WithHelp adds a help suggestion (displayed as "help: ...").
func (e *Error) WithHelp(help string) *Error {
	helps, _ := e.context["helps"].([]string)
	helps = append(helps, help)
	return e.With("helps", helps)
}

// WithNote adds a note (displayed as "note: ...").
func (e *Error) WithNote(note string) *Error {
	notes, _ := e.context["notes"].([]string)
	notes = append(notes, note)
	return e.With("notes", notes)
}

// Helps returns all help suggestions attached to this error.
func (e *Error) Helps() []string {
	helps, _ := e.context["helps"].([]string)
	return helps
}

// Notes returns all notes attached to this error.
func (e *Error) Notes() []string {
	notes, _ := e.context["notes"].([]string)
	return notes
}

func captureStack(skip int) string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}
		b.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return b.String()
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Wrap creates a new Error that wraps err. A nil err behaves like New.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		cause:   err,
		stack:   captureStack(3),
	}
}

// Wrapf creates a new Error that wraps err with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the first error code in the chain, or "".
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae.code
	}

	return ""
}

// Is checks if an error has the specified code.
func Is(err error, code Code) bool {
	return GetErrorCode(err) == code
}

// HasCode checks if an error has any error code.
func HasCode(err error) bool {
	return GetErrorCode(err) != ""
}
