package dto

import "net/http"

// Error code constants organized by category

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeTimeout is used when a request exceeds its deadline
	ErrCodeTimeout = "ERR_TIMEOUT"
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Resource and state error codes
const (
	// ErrCodeNotFound is used when a route or resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeInvalidState is used when an operation is unavailable in the current deployment
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeUnavailable is used when a dependency such as the database is down
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Sell-out report error codes. These are the domain codes, passed through unchanged.
const (
	ErrCodeInvalidRange         = "INVALID_RANGE"
	ErrCodeMalformedDate        = "MALFORMED_DATE"
	ErrCodeInvalidParameter     = "INVALID_PARAMETER"
	ErrCodeUnknownReport        = "UNKNOWN_REPORT"
	ErrCodeMalformedRecord      = "MALFORMED_RECORD"
	ErrCodeReferenceUnavailable = "REFERENCE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,

	// Caller mistakes -> 400, missing report -> 404, broken sources -> 500
	ErrCodeInvalidRange:         http.StatusBadRequest,
	ErrCodeMalformedDate:        http.StatusBadRequest,
	ErrCodeInvalidParameter:     http.StatusBadRequest,
	ErrCodeUnknownReport:        http.StatusNotFound,
	ErrCodeMalformedRecord:      http.StatusInternalServerError,
	ErrCodeReferenceUnavailable: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the shared domain error codes to the API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"INVALID_INPUT":  ErrCodeBadRequest,
	"INVALID_STATE":  ErrCodeInvalidState,
	"INTERNAL_ERROR": ErrCodeInternal,
}

// NormalizeErrorCode converts a shared domain code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
