package handler

import "github.com/mayavriksh/backend/internal/interfaces/http/dto"

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Code    int       `json:"code" example:"200"`
	Message string    `json:"message" example:"OK"`
	Data    T         `json:"data,omitempty"`
	Meta    *dto.Meta `json:"meta,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success   bool   `json:"success" example:"false"`
	Code      int    `json:"code" example:"422"`
	Message   string `json:"message" example:"Operation not allowed in current state"`
	Error     string `json:"error" example:"INVALID_STATE"`
	RequestID string `json:"request_id,omitempty" example:"5f1d7c1e-8f0e-4c55-9d7a-2b51a8a0e1c4"`
}
