package dto

import (
	"net/http"

	"github.com/mayavriksh/backend/internal/domain/shared"
)

// Response is the envelope of every API response. Code repeats the HTTP
// status; Error carries the machine-readable error code on failures.
type Response struct {
	Success   bool   `json:"success"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
	Meta      *Meta  `json:"meta,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(status int, message string, data any) Response {
	if message == "" {
		message = http.StatusText(status)
	}
	return Response{
		Success: true,
		Code:    status,
		Message: message,
		Data:    data,
	}
}

// NewPageResponse creates a success response from one page of results. The
// items become data and the counters become meta.
func NewPageResponse[T any](message string, page *shared.Paginated[T]) Response {
	resp := NewSuccessResponse(http.StatusOK, message, page.Items)
	resp.Meta = &Meta{
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	return resp
}

// NewErrorResponse creates an error response whose status follows the code
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success:   false,
		Code:      GetHTTPStatus(code),
		Message:   message,
		Error:     code,
		RequestID: requestID,
	}
}
