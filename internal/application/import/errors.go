package importapp

import (
	"errors"
	"fmt"
	"strings"
)

// Import error codes
const (
	// Input errors
	CodeInvalidURL         = "INVALID_URL"
	CodeIncompleteListing  = "INCOMPLETE_LISTING"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeConfigurationError = "CONFIGURATION_ERROR"

	// Upstream errors
	CodeMarketplaceAuthRequired = "MARKETPLACE_AUTH_REQUIRED"
	CodeListingNotFound         = "LISTING_NOT_FOUND"
	CodeMarketplaceUnavailable  = "MARKETPLACE_UNAVAILABLE"

	// Resolution errors
	CodeNoCategoryAvailable = "NO_CATEGORY_AVAILABLE"
	CodeNoVendorAvailable   = "NO_VENDOR_AVAILABLE"

	// Persistence errors
	CodePersistenceFailed         = "PERSISTENCE_FAILED"
	CodeIncompletePersistedRecord = "INCOMPLETE_PERSISTED_RECORD"
)

// Sentinel errors, one per code. Match with errors.Is.
var (
	ErrInvalidURL                = &ImportError{Code: CodeInvalidURL, Message: "invalid listing URL"}
	ErrIncompleteListing         = &ImportError{Code: CodeIncompleteListing, Message: "listing is incomplete"}
	ErrValidationFailed          = &ImportError{Code: CodeValidationFailed, Message: "listing failed validation"}
	ErrConfiguration             = &ImportError{Code: CodeConfigurationError, Message: "import is not configured"}
	ErrMarketplaceAuthRequired   = &ImportError{Code: CodeMarketplaceAuthRequired, Message: "marketplace authorization required"}
	ErrListingNotFound           = &ImportError{Code: CodeListingNotFound, Message: "listing not found"}
	ErrMarketplaceUnavailable    = &ImportError{Code: CodeMarketplaceUnavailable, Message: "marketplace unavailable"}
	ErrNoCategoryAvailable       = &ImportError{Code: CodeNoCategoryAvailable, Message: "no category available"}
	ErrNoVendorAvailable         = &ImportError{Code: CodeNoVendorAvailable, Message: "no vendor available"}
	ErrPersistenceFailed         = &ImportError{Code: CodePersistenceFailed, Message: "failed to persist product"}
	ErrIncompletePersistedRecord = &ImportError{Code: CodeIncompletePersistedRecord, Message: "persisted product is incomplete"}
)

// FieldError is a single violation of the listing schema
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ImportError is the error returned by every stage of the import pipeline.
// Code identifies the failure kind; Details lists field violations and
// Payload carries the record a failed write attempted to store.
type ImportError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	Payload any          `json:"payload,omitempty"`
	Err     error        `json:"-"`
}

// Error implements the error interface
func (e *ImportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is matches any ImportError with the same code
func (e *ImportError) Is(target error) bool {
	var other *ImportError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func newImportError(code, message string, cause error) *ImportError {
	return &ImportError{Code: code, Message: message, Err: cause}
}

// CodeOf returns the import error code carried by err, or "" when err is not an ImportError
func CodeOf(err error) string {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// ErrorCollection gathers field violations so they can be reported together
type ErrorCollection struct {
	errors     []FieldError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]FieldError, 0, 8),
		maxErrors: maxErrors,
	}
}

// Add adds a violation to the collection
func (ec *ErrorCollection) Add(path, message string) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, FieldError{Path: path, Message: message})
	}
}

// AddRequired adds a missing field violation
func (ec *ErrorCollection) AddRequired(path string) {
	ec.Add(path, fmt.Sprintf("%s is required", path))
}

// Errors returns the collected violations
func (ec *ErrorCollection) Errors() []FieldError {
	return ec.errors
}

// HasErrors reports whether any violation was collected
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// Count returns the number of collected violations (up to maxErrors)
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
}

// TotalCount returns the total number of violations including those not collected
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// IsTruncated returns true if some violations were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > len(ec.errors)
}

// Paths returns the path of each collected violation in order
func (ec *ErrorCollection) Paths() []string {
	paths := make([]string, len(ec.errors))
	for i, e := range ec.errors {
		paths[i] = e.Path
	}
	return paths
}

// AsError converts the collection into an ImportError with the given code,
// or nil when nothing was collected
func (ec *ErrorCollection) AsError(code, message string) error {
	if !ec.HasErrors() {
		return nil
	}
	details := make([]FieldError, len(ec.errors))
	copy(details, ec.errors)
	return &ImportError{Code: code, Message: message, Details: details}
}
