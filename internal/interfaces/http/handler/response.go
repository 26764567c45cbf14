package handler

import "github.com/erp/posbridge/internal/interfaces/http/dto"

// Documentation models. Handlers write dto.Response; these only give the
// generated API docs a typed data field.

// APIResponse is dto.Response with a typed payload
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse is dto.Response for failures that carry no payload
type ErrorResponse struct {
	Success bool          `json:"success" example:"false"`
	Error   dto.ErrorInfo `json:"error"`
}
