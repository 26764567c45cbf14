package crm

import (
	"errors"
	"time"
)

// Config holds the CRM API connection settings
type Config struct {
	// BaseURL is the API root, e.g. https://openapi.example-crm.com/v1
	BaseURL string
	// APIKey is sent as a bearer token
	APIKey string
	// RequestsPerMinute is the client-side ceiling; zero disables limiting
	RequestsPerMinute int
	// PageSize is the page size of paginated reads
	PageSize int
	// PageDelay is slept between pages of one listing
	PageDelay time.Duration
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// Errors for CRM configuration
var (
	ErrConfigMissingBaseURL = errors.New("crm: base URL is required")
	ErrConfigMissingAPIKey  = errors.New("crm: API key is required")
)

// DefaultConfig returns a configuration with defaults for everything but credentials
func DefaultConfig() *Config {
	return &Config{
		RequestsPerMinute: 60,
		PageSize:          50,
		PageDelay:         time.Second,
		Timeout:           30 * time.Second,
	}
}

// Validate validates the CRM configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	return nil
}
