package loader

import (
	"fmt"
	"strings"
)

// LoadError reports a failure to access or read a policy file.
type LoadError struct {
	FilePath string
	Message  string
	Cause    error
}

// Error returns the error message.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load %s: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("load %s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError reports a failure to parse or validate a policy file's
// contents.
type ParseError struct {
	FilePath string
	Message  string
	Cause    error
}

// Error returns the error message.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse %s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ErrorList aggregates per-file errors from a directory load.
type ErrorList struct {
	Errors []error
}

// Add appends an error to the list.
func (l *ErrorList) Add(err error) {
	if err != nil {
		l.Errors = append(l.Errors, err)
	}
}

// HasErrors reports whether any errors were collected.
func (l *ErrorList) HasErrors() bool {
	return len(l.Errors) > 0
}

// Error returns all collected errors joined on newlines.
func (l *ErrorList) Error() string {
	if len(l.Errors) == 0 {
		return "no errors"
	}
	msgs := make([]string, len(l.Errors))
	for i, err := range l.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d policy file errors:\n%s", len(l.Errors), strings.Join(msgs, "\n"))
}
