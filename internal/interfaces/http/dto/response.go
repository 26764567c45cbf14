package dto

import "time"

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return NewErrorResponseWithRequestID(code, message, "")
}

// NewErrorResponseWithRequestID creates an error response carrying the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now(),
		},
	}
}

// IgnoredData is returned for webhook events this service chose not to process
type IgnoredData struct {
	Ignored   bool   `json:"ignored"`
	ReceiptID string `json:"receipt_id,omitempty"`
	Reason    string `json:"reason"`
}

// AcceptedData is returned for webhook events handed to the background executor
type AcceptedData struct {
	Accepted  bool   `json:"accepted"`
	ReceiptID string `json:"receipt_id"`
}

// HealthData is the body of the health endpoint
type HealthData struct {
	Status          string `json:"status"`
	POSSignedIn     bool   `json:"pos_signed_in"`
	ExecutorRunning bool   `json:"executor_running"`
	SchedulerActive bool   `json:"scheduler_active"`
}
