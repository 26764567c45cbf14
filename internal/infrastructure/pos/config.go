package pos

import (
	"errors"
	"time"
)

// Config holds the POS API connection settings
type Config struct {
	// BaseURL is the API root
	BaseURL string
	// Login and Password are the cashier credentials this service signs in with
	Login    string
	Password string
	// LicenseKey is sent as X-License-Key on every call
	LicenseKey string
	// PageSize is the limit of paginated reads
	PageSize int
	// PageDelay is slept between pages of one listing
	PageDelay time.Duration
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// Errors for POS configuration
var (
	ErrConfigMissingBaseURL     = errors.New("pos: base URL is required")
	ErrConfigMissingCredentials = errors.New("pos: login and password are required")
)

// DefaultConfig returns a configuration with defaults for everything but credentials
func DefaultConfig() *Config {
	return &Config{
		PageSize:  100,
		PageDelay: 200 * time.Millisecond,
		Timeout:   30 * time.Second,
	}
}

// Validate validates the POS configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Login == "" || c.Password == "" {
		return ErrConfigMissingCredentials
	}
	return nil
}
