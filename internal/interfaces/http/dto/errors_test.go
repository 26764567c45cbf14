package dto

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := map[string]int{
		ErrCodeInternal:         http.StatusInternalServerError,
		ErrCodeUnavailable:      http.StatusServiceUnavailable,
		ErrCodeSyncAborted:      http.StatusInternalServerError,
		ErrCodeUnauthorized:     http.StatusUnauthorized,
		ErrCodeSignatureInvalid: http.StatusBadRequest,
		ErrCodeBadRequest:       http.StatusBadRequest,
		ErrCodeInvalidJSON:      http.StatusBadRequest,
		ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
		ErrCodeRateLimited:      http.StatusTooManyRequests,
		"ERR_NOT_A_CODE":        http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, Status(code), code)
	}
}

func TestErrorCodeFormat(t *testing.T) {
	format := regexp.MustCompile(`^ERR_[A-Z_]+$`)
	for code := range codeStatus {
		assert.Regexp(t, format, code)
	}
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(ErrCodeUnauthorized, "invalid secret")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnauthorized, resp.Error.Code)
	assert.Equal(t, "invalid secret", resp.Error.Message)
	assert.Empty(t, resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.Before(before))
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeSignatureInvalid, "signature mismatch", "req-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeSignatureInvalid, decoded.Error.Code)
	assert.Equal(t, "req-123", decoded.Error.RequestID)
	assert.NotContains(t, string(data), `"data"`)
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(IgnoredData{Ignored: true, Reason: "not a sale"})

	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"ignored":true,"reason":"not a sale"}}`, string(data))
}
