// Package errors provides structured error types for the Tesser client.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by client component.
type ErrorCategory string

const (
	ErrCategoryValidation  ErrorCategory = "VALIDATION"
	ErrCategoryTransaction ErrorCategory = "TRANSACTION"
	ErrCategorySchema      ErrorCategory = "SCHEMA"
	ErrCategoryTrigger     ErrorCategory = "TRIGGER"
	ErrCategoryQuery       ErrorCategory = "QUERY"
	ErrCategoryStorage     ErrorCategory = "STORAGE"
	ErrCategoryInternal    ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidSymbol   = "INVALID_SYMBOL"
	CodeInvalidSchema   = "INVALID_SCHEMA"
	CodeTypeMismatch    = "TYPE_MISMATCH"
	CodeKeyNotSupported = "KEY_NOT_SUPPORTED"
	CodeInvalidConfig   = "INVALID_CONFIG"

	// Transaction codes
	CodeModeError  = "MODE_ERROR"
	CodeTimeout    = "TIMEOUT"
	CodeClosed     = "CLOSED"
	CodeStaleState = "STALE_STATE"

	// Schema codes
	CodeIndexConflict    = "INDEX_CONFLICT"
	CodeUnsupportedIndex = "UNSUPPORTED_INDEX"
	CodeUnknownColumn    = "UNKNOWN_COLUMN"

	// Trigger codes
	CodeTriggerValidation = "TRIGGER_VALIDATION"

	// Query codes
	CodeParseError = "PARSE_ERROR"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
	CodeBlobFreed      = "BLOB_FREED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// TesserError is the structured error type used throughout the client.
type TesserError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *TesserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *TesserError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *TesserError) Is(target error) bool {
	var t *TesserError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new TesserError.
func New(category ErrorCategory, code, message string) *TesserError {
	return &TesserError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Newf creates a new TesserError with a formatted message.
func Newf(category ErrorCategory, code, format string, args ...interface{}) *TesserError {
	return New(category, code, fmt.Sprintf(format, args...))
}

// Wrap creates a new TesserError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *TesserError {
	return &TesserError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *TesserError) WithDetails(details map[string]interface{}) *TesserError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var te *TesserError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a TesserError.
func GetCategory(err error) ErrorCategory {
	var te *TesserError
	if errors.As(err, &te) {
		return te.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a TesserError.
func GetCode(err error) string {
	var te *TesserError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// isRetryable determines if an error code is retryable.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryTransaction && code == CodeTimeout:
		return true
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewModeError(message string) *TesserError {
	return New(ErrCategoryTransaction, CodeModeError, message)
}

func NewTimeoutError(message string) *TesserError {
	return New(ErrCategoryTransaction, CodeTimeout, message)
}

func NewClosedError(message string) *TesserError {
	return New(ErrCategoryTransaction, CodeClosed, message)
}

func NewStaleStateError(message string) *TesserError {
	return New(ErrCategoryTransaction, CodeStaleState, message)
}

func NewKeyNotSupportedError(message string) *TesserError {
	return New(ErrCategoryValidation, CodeKeyNotSupported, message)
}

func NewTypeMismatchError(message string) *TesserError {
	return New(ErrCategoryValidation, CodeTypeMismatch, message)
}

func NewValidationError(code, message string) *TesserError {
	return New(ErrCategoryValidation, code, message)
}

func NewIndexConflictError(message string) *TesserError {
	return New(ErrCategorySchema, CodeIndexConflict, message)
}

func NewUnsupportedIndexError(message string) *TesserError {
	return New(ErrCategorySchema, CodeUnsupportedIndex, message)
}

func NewTriggerValidationError(message string) *TesserError {
	return New(ErrCategoryTrigger, CodeTriggerValidation, message)
}

func NewQueryError(code, message string) *TesserError {
	return New(ErrCategoryQuery, code, message)
}

func NewStorageError(code, message string, cause error) *TesserError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *TesserError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
