// Package errors provides rich error types for rule file parsing and
// compilation. Errors carry the file and line they originate from so that a
// failed reload can point the operator at the offending declaration.
package errors

import (
	"fmt"
	"strings"
)

// ErrorType categorizes the type of error encountered while loading rules.
type ErrorType string

const (
	ErrorTypeSyntax   ErrorType = "syntax"   // malformed directive or operator arguments
	ErrorTypePattern  ErrorType = "pattern"  // regex failed to compile
	ErrorTypeSemantic ErrorType = "semantic" // unknown group, capture reference out of range, import cycle
	ErrorTypeIO       ErrorType = "io"       // file I/O error
)

// Error is a rich load error with location and an optional suggestion.
type Error struct {
	Type       ErrorType
	Message    string
	File       string
	Line       int
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))

	if e.File != "" {
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  --> %s:%d", e.File, e.Line))
		} else {
			sb.WriteString(fmt.Sprintf("\n  --> %s", e.File))
		}
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n  = suggestion: %s", e.Suggestion))
	}

	return sb.String()
}

// Syntaxf builds a syntax error at the given location.
func Syntaxf(file string, line int, format string, args ...any) *Error {
	return &Error{Type: ErrorTypeSyntax, File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Patternf builds a pattern compilation error at the given location.
func Patternf(file string, line int, format string, args ...any) *Error {
	return &Error{Type: ErrorTypePattern, File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Semanticf builds a semantic error at the given location.
func Semanticf(file string, line int, format string, args ...any) *Error {
	return &Error{Type: ErrorTypeSemantic, File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// List accumulates multiple load errors so a single pass can report every
// broken declaration in a file instead of stopping at the first.
type List struct {
	Errors []*Error
}

// Add appends an error to the list.
func (l *List) Add(err *Error) {
	l.Errors = append(l.Errors, err)
}

// HasErrors reports whether the list contains any errors.
func (l *List) HasErrors() bool {
	return len(l.Errors) > 0
}

// Error implements the error interface.
func (l *List) Error() string {
	if !l.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d error(s):\n", len(l.Errors)))

	for _, err := range l.Errors {
		sb.WriteString("\n")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToError returns nil when the list is empty, otherwise the list itself.
func (l *List) ToError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}
