package dto

import "net/http"

// Error codes carried in ErrorInfo.Code. Every code is ERR_<WHAT>.
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
	// ErrCodeSyncAborted means a catalog run stopped before visiting every unit.
	// The body still carries the partial run summary.
	ErrCodeSyncAborted = "ERR_SYNC_ABORTED"

	ErrCodeUnauthorized     = "ERR_UNAUTHORIZED"
	ErrCodeSignatureInvalid = "ERR_SIGNATURE_INVALID"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

var codeStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeUnavailable:      http.StatusServiceUnavailable,
	ErrCodeSyncAborted:      http.StatusInternalServerError,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeSignatureInvalid: http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
}

// Status returns the HTTP status an error code is answered with; unknown codes map to 500
func Status(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
