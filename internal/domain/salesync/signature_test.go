package salesync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"receipt":{"id":"r-1"}}`)
	secret := "whsec"
	valid := Sign(secret, body)

	tests := []struct {
		name      string
		secret    string
		signature string
		wantErr   error
	}{
		{"valid", secret, valid, nil},
		{"uppercase hex", secret, strings.ToUpper(valid), nil},
		{"prefixed", secret, "sha256=" + valid, nil},
		{"secret not configured", "", "", nil},
		{"secret not configured ignores garbage", "", "zz", nil},
		{"missing", secret, "", ErrMissingSignature},
		{"not hex", secret, "not-hex", ErrInvalidSignature},
		{"wrong secret", secret, Sign("other", body), ErrInvalidSignature},
		{"truncated", secret, valid[:10], ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, body, tt.signature)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifySignature_BodyTampered(t *testing.T) {
	sig := Sign("whsec", []byte(`{"total_sum":100}`))
	assert.ErrorIs(t, VerifySignature("whsec", []byte(`{"total_sum":1}`), sig), ErrInvalidSignature)
}
