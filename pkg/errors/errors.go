package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents a price field that could not be found in the page
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeSchemaMismatch means an existing workbook cannot be safely extended
	ErrorTypeSchemaMismatch ErrorType = "schema_mismatch"
	// ErrorTypeConcurrentRun means another merge holds the workbook lock
	ErrorTypeConcurrentRun ErrorType = "concurrent_run"
	// ErrorTypeWrite represents a failed workbook or snapshot commit
	ErrorTypeWrite ErrorType = "write"
)

// Error is the error type shared by scrapers, the merger and the services.
// Source names the site, domain or workbook the error belongs to.
type Error struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeConcurrentRun:
		return true
	default:
		return false
	}
}

// New creates a new Error
func New(errType ErrorType, source, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *Error {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *Error {
	return New(ErrorTypeParsing, source, message, err)
}

// NewFieldNotFound reports a price field missing from the fetched page.
func NewFieldNotFound(source, field string) *Error {
	return New(ErrorTypeParsing, source, fmt.Sprintf("field not found: %s", field), nil)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *Error {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *Error {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *Error {
	return New(ErrorTypePublisher, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *Error {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *Error {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewSchemaMismatch creates a new schema mismatch error for a workbook
func NewSchemaMismatch(workbook, message string) *Error {
	return New(ErrorTypeSchemaMismatch, workbook, message, nil)
}

// NewConcurrentRun creates a new concurrent run error for a workbook
func NewConcurrentRun(workbook string, err error) *Error {
	return New(ErrorTypeConcurrentRun, workbook, "another merge is in progress", err)
}

// NewWrite creates a new write error
func NewWrite(target, message string, err error) *Error {
	return New(ErrorTypeWrite, target, message, err)
}

// Is reports whether any error in err's chain is an *Error of the given type.
func Is(err error, errType ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == errType
	}
	return false
}

// TypeOf returns the type of the first *Error in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}
