package dto

import (
	"net/http"

	importapp "github.com/storefront/backend/internal/application/import"
)

// Transport error codes
// Format: ERR_<DESCRIPTION>
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeValidation is used when the request body fails binding validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks a required role
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeNotFound is used for unknown routes
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when a caller exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTimeout is used when the request deadline expires
	ErrCodeTimeout = "ERR_TIMEOUT"
	// ErrCodeCanceled is used when the client went away mid-request
	ErrCodeCanceled = "ERR_CANCELED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Transport errors
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
	// 499 is not in net/http; nginx uses it for client closed request
	ErrCodeCanceled: 499,

	// Import input errors -> 400 Bad Request
	importapp.CodeInvalidURL:        http.StatusBadRequest,
	importapp.CodeIncompleteListing: http.StatusBadRequest,
	importapp.CodeValidationFailed:  http.StatusBadRequest,

	// Upstream marketplace errors
	importapp.CodeMarketplaceAuthRequired: http.StatusUnauthorized,
	importapp.CodeListingNotFound:         http.StatusNotFound,
	importapp.CodeMarketplaceUnavailable:  http.StatusInternalServerError,

	// Datastore and configuration errors -> 500
	importapp.CodeConfigurationError:        http.StatusInternalServerError,
	importapp.CodeNoCategoryAvailable:       http.StatusInternalServerError,
	importapp.CodeNoVendorAvailable:         http.StatusInternalServerError,
	importapp.CodePersistenceFailed:         http.StatusInternalServerError,
	importapp.CodeIncompletePersistedRecord: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
