package shared

import "errors"

// Error codes shared across bounded contexts. The HTTP layer maps each code
// to a status.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeItemNotFound        = "ITEM_NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeForbidden           = "FORBIDDEN"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeAlreadyPaid         = "ALREADY_PAID"
	CodeOrderNotAccepted    = "ORDER_NOT_ACCEPTED"
	CodeUploadFailed        = "UPLOAD_FAILED"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so that errors built with
// NewDomainError match the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrItemNotFound        = NewDomainError(CodeItemNotFound, "Order item not found")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrAlreadyPaid         = NewDomainError(CodeAlreadyPaid, "Order is already fully paid")
	ErrOrderNotAccepted    = NewDomainError(CodeOrderNotAccepted, "Order has not been accepted by the supplier")
	ErrUploadFailed        = NewDomainError(CodeUploadFailed, "Media upload failed")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// CodeOf returns the code of the first DomainError in err's chain, or "" when
// err carries none.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
