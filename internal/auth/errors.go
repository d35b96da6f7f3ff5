package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for authentication operations.
var (
	// ErrNoCredentials indicates that no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidAPIKey indicates that the API key is not in the allow-list.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrMissingUserHeader indicates that the header provider did not find
	// the required user ID header.
	ErrMissingUserHeader = errors.New("missing required user header")

	// ErrProviderNotInitialized indicates that the auth provider was used
	// before Registry.Set was called. This is a programming error, not a
	// retryable condition.
	ErrProviderNotInitialized = errors.New("auth provider not initialized")
)

// ConfigurationError is a fatal startup error: a provider cannot be
// constructed because a required configuration field is missing or a
// policy forbids the selected mode. The process must not serve traffic.
type ConfigurationError struct {
	// Field names the offending configuration field.
	Field string

	// Message explains what is wrong.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigurationError creates a ConfigurationError for a field.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
