package dto

import "net/http"

// Error codes returned in the "error.code" field. Domain codes pass through unchanged.
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeConcurrency        = "CONCURRENCY_CONFLICT"
	ErrCodeDependencyConflict = "DEPENDENCY_CONFLICT"
	ErrCodeDuplicateRequest   = "DUPLICATE_REQUEST"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeUnknownTenant      = "UNKNOWN_TENANT"
	ErrCodeTenantRequired     = "TENANT_REQUIRED"
	ErrCodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeLockTimeout        = "LOCK_TIMEOUT"
	ErrCodeUnavailable        = "SERVICE_UNAVAILABLE"
	ErrCodeImportRejected     = "IMPORT_REJECTED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeInvalidInput:   http.StatusBadRequest,
	ErrCodeUnknownTenant:  http.StatusBadRequest,
	ErrCodeTenantRequired: http.StatusBadRequest,
	ErrCodeImportRejected: http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeAlreadyExists:      http.StatusConflict,
	ErrCodeConcurrency:        http.StatusConflict,
	ErrCodeDependencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:   http.StatusConflict,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,

	ErrCodeLockTimeout: http.StatusServiceUnavailable,
	ErrCodeUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
