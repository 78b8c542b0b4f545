package viber

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates the client cannot build a request from its settings.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("viber client not configured: %s", e.Reason)
}

// TransportError wraps failures that happen before a status could be read:
// network errors, unreadable bodies and responses that are not JSON.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("viber %s: transport error (HTTP %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("viber %s: transport error: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteAPIError is returned when the API answered with a status other than "ok".
// Message is the remote status_message, verbatim.
type RemoteAPIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *RemoteAPIError) Error() string {
	return e.Message
}

// IsConfigurationError checks if the error is a configuration error.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsTransportError checks if the error is a transport error.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsRemoteAPIError checks if the error came from the remote API status field.
func IsRemoteAPIError(err error) bool {
	var e *RemoteAPIError
	return errors.As(err, &e)
}

// RemoteStatus returns the numeric API status carried by a RemoteAPIError.
func RemoteStatus(err error) (int, bool) {
	var e *RemoteAPIError
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Status, true
}
