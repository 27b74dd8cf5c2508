// Package errors provides the structured error type (GitLyteError) the rest
// of the codebase classifies failures with, plus the adapters that translate
// those classifications into HTTP responses and CLI exit codes.
package errors

import (
	"fmt"
)

// ErrorCategory classifies an error for dispatch in the HTTP and CLI adapters
type ErrorCategory string

const (
	// Operator input and credentials
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"

	// Upstream systems
	CategoryNetwork ErrorCategory = "network"
	CategoryGitHub  ErrorCategory = "github"
	CategoryLLM     ErrorCategory = "llm"

	// Generation pipeline stages
	CategoryContent    ErrorCategory = "content"
	CategoryGeneration ErrorCategory = "generation"
	CategoryPublish    ErrorCategory = "publish"
	CategoryGuard      ErrorCategory = "guard"

	// Everything else
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity grades how an error affects the running operation
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Operation cannot proceed
	SeverityError   ErrorSeverity = "error"   // Failed, recoverable by retry or restart
	SeverityWarning ErrorSeverity = "warning" // Operation continues degraded
	SeverityInfo    ErrorSeverity = "info"    // Advisory only
)

// GitLyteError pairs a message with a category, a severity, a retryability
// flag, and optional key/value context
type GitLyteError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields holds per-error key/value annotations
type ContextFields map[string]any

// Error renders as "category (severity): message" with the cause appended
// when present
func (e *GitLyteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *GitLyteError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair and returns the error for chaining
func (e *GitLyteError) WithContext(key string, value any) *GitLyteError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New builds a non-retryable error with no cause
func New(category ErrorCategory, severity ErrorSeverity, message string) *GitLyteError {
	return &GitLyteError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap builds a non-retryable error around a cause
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *GitLyteError {
	return &GitLyteError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable builds an error the caller may retry
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *GitLyteError {
	return &GitLyteError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable builds a retryable error around a cause
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *GitLyteError {
	return &GitLyteError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory reports whether err is a GitLyteError in the given category
func IsCategory(err error, category ErrorCategory) bool {
	if gle, ok := err.(*GitLyteError); ok {
		return gle.Category == category
	}
	return false
}

// IsRetryable reports whether err is a GitLyteError marked retryable
func IsRetryable(err error) bool {
	if gle, ok := err.(*GitLyteError); ok {
		return gle.Retryable
	}
	return false
}

// GetCategory returns err's category, or CategoryInternal for foreign errors
func GetCategory(err error) ErrorCategory {
	if gle, ok := err.(*GitLyteError); ok {
		return gle.Category
	}
	return CategoryInternal
}

// ValidationError builds a warning-severity validation error, mapped to
// HTTP 400 by the adapter
func ValidationError(message string) *GitLyteError {
	return &GitLyteError{
		Category:  CategoryValidation,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: false,
	}
}

// DaemonError builds a daemon-category error, mapped to HTTP 503 by the
// adapter
func DaemonError(message string) *GitLyteError {
	return &GitLyteError{
		Category:  CategoryDaemon,
		Severity:  SeverityError,
		Message:   message,
		Retryable: false,
	}
}

// WrapError wraps a cause at SeverityError in the given category
func WrapError(err error, category ErrorCategory, message string) *GitLyteError {
	return &GitLyteError{
		Category:  category,
		Severity:  SeverityError,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}
