package dto

import (
	"net/http"

	"github.com/mayavriksh/backend/internal/domain/shared"
)

// Codes produced by the HTTP layer itself
const (
	CodeInternal        = "INTERNAL_ERROR"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenRevoked    = "TOKEN_REVOKED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:     http.StatusNotFound,
	shared.CodeItemNotFound: http.StatusNotFound,

	shared.CodeInvalidState:     http.StatusUnprocessableEntity,
	shared.CodeOrderNotAccepted: http.StatusUnprocessableEntity,

	shared.CodeForbidden:    http.StatusForbidden,
	shared.CodeUnauthorized: http.StatusUnauthorized,
	CodeTokenExpired:        http.StatusUnauthorized,
	CodeTokenRevoked:        http.StatusUnauthorized,

	shared.CodeAlreadyPaid:         http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,

	shared.CodeValidation: http.StatusBadRequest,
	CodeRequestTooLarge:   http.StatusRequestEntityTooLarge,

	shared.CodeUploadFailed: http.StatusBadGateway,

	CodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
