package dto

import (
	"net/http"

	"github.com/sharehub/backend/internal/domain/shared"
)

// Error codes returned in the "code" field of error responses.
// Format: ERR_<CATEGORY>
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeStorage         = "ERR_STORAGE"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Storage failures default to 400; handlers that report them differently
// choose the status themselves.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeStorage:         http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps shared.DomainError codes to API error codes
var domainErrorCodes = map[string]string{
	shared.CodeNotFound:     ErrCodeNotFound,
	shared.CodeInvalidInput: ErrCodeInvalidInput,
	shared.CodeValidation:   ErrCodeValidation,
	shared.CodeStorage:      ErrCodeStorage,
}

// NormalizeErrorCode converts a domain error code to its API form.
// Codes already in API form, or unknown codes, are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodes[code]; ok {
		return apiCode
	}
	return code
}
