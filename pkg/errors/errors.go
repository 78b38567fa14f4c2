// Package errors defines the categorized error type shared across the
// ingestion and matching pipeline. Row-level problems are never
// surfaced through this package; only whole-file and configuration
// failures become ReconcileErrors.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by the subsystem that produced them
type ErrorCategory string

const (
	CategoryFile       ErrorCategory = "file"
	CategoryParse      ErrorCategory = "parse"
	CategoryValidation ErrorCategory = "validation"
	CategoryStore      ErrorCategory = "store"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category
type ErrorCode string

const (
	// File errors
	CodeFileNotFound        ErrorCode = "file_not_found"
	CodeFilePermission      ErrorCode = "file_permission"
	CodeUnsupportedFileType ErrorCode = "unsupported_file_type"

	// Parse errors
	CodeEmptyInput          ErrorCode = "empty_input"
	CodeUnrecognizedColumns ErrorCode = "unrecognized_columns"
	CodeCorruptWorkbook     ErrorCode = "corrupt_workbook"

	// Validation errors
	CodeUnparseableDate   ErrorCode = "unparseable_date"
	CodeUnparseableAmount ErrorCode = "unparseable_amount"

	// Store errors
	CodeLoadFailed ErrorCode = "load_failed"
	CodeSaveFailed ErrorCode = "save_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcileError is the base error type for all application errors
type ReconcileError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries additional structured information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcileError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcileError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate process exit code for the error
func (e *ReconcileError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryStore:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcileError) WithContext(key string, value interface{}) *ReconcileError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcileError) WithSuggestion(suggestion string) *ReconcileError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReconcileError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcileError {
	return &ReconcileError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcileError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcileError {
	if err == nil {
		return nil
	}

	return &ReconcileError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-access error
func FileError(code ErrorCode, path string, err error) *ReconcileError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeUnsupportedFileType:
		message = fmt.Sprintf("unsupported file format: %s", path)
		suggestion = "supported formats are .csv, .xlsx, .xls, and plain text"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *ReconcileError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// EmptyInputError reports a file that contained no data rows at all
func EmptyInputError(source string) *ReconcileError {
	return New(CategoryParse, CodeEmptyInput,
		fmt.Sprintf("no data rows found in %s", source)).
		WithSuggestion("ensure the file contains at least one data row below the header").
		WithContext("source", source)
}

// UnrecognizedColumnsError reports a file whose rows were present but
// none survived field extraction. Kept distinct from EmptyInputError so
// callers can give targeted guidance.
func UnrecognizedColumnsError(source string, rows int) *ReconcileError {
	return New(CategoryParse, CodeUnrecognizedColumns,
		fmt.Sprintf("%d rows found in %s but no recognizable columns", rows, source)).
		WithSuggestion("check that the file has date and amount columns with standard headers").
		WithContext("source", source).
		WithContext("rows", rows)
}

// ValidationError creates a field-level validation error
func ValidationError(code ErrorCode, field string, value interface{}) *ReconcileError {
	var message string
	var suggestion string

	switch code {
	case CodeUnparseableDate:
		message = fmt.Sprintf("unparseable date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD or M/D/YYYY"
	case CodeUnparseableAmount:
		message = fmt.Sprintf("unparseable amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are decimal numbers, optionally with $ and thousands separators"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return New(CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// StoreError creates a persistence-related error
func StoreError(code ErrorCode, collection string, err error) *ReconcileError {
	var message string

	switch code {
	case CodeLoadFailed:
		message = fmt.Sprintf("failed to load collection '%s'", collection)
	case CodeSaveFailed:
		message = fmt.Sprintf("failed to save collection '%s'", collection)
	default:
		message = fmt.Sprintf("store error for collection '%s'", collection)
	}

	var result *ReconcileError
	if err != nil {
		result = Wrap(err, CategoryStore, code, message)
	} else {
		result = New(CategoryStore, code, message)
	}

	return result.
		WithSuggestion("check that the data directory exists and is writable").
		WithContext("collection", collection)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *ReconcileError {
	result := Wrap(err, CategoryInternal, CodeUnexpectedError,
		fmt.Sprintf("unexpected error during %s", operation))
	if result == nil {
		result = New(CategoryInternal, CodeUnexpectedError,
			fmt.Sprintf("unexpected error during %s", operation))
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// Utility functions

// IsReconcileError checks if an error is a ReconcileError
func IsReconcileError(err error) bool {
	_, ok := err.(*ReconcileError)
	return ok
}

// AsReconcileError extracts a ReconcileError from an error chain
func AsReconcileError(err error) (*ReconcileError, bool) {
	var reconcileErr *ReconcileError
	if errors.As(err, &reconcileErr) {
		return reconcileErr, true
	}
	return nil, false
}

// HasCode reports whether the error chain contains a ReconcileError
// with the given code
func HasCode(err error, code ErrorCode) bool {
	if reconcileErr, ok := AsReconcileError(err); ok {
		return reconcileErr.Code == code
	}
	return false
}

// FormatContext renders the context map for log output
func (e *ReconcileError) FormatContext() string {
	if len(e.Context) == 0 {
		return ""
	}

	var parts []string
	for key, value := range e.Context {
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	return strings.Join(parts, " ")
}
