package viber

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	cfg := &ConfigurationError{Reason: "host is not defined"}
	transport := &TransportError{Endpoint: PathSendMessage, Err: errors.New("connection refused")}
	remote := &RemoteAPIError{Endpoint: PathSendMessage, Status: 2, Message: "invalid token"}

	tests := []struct {
		name      string
		err       error
		isConfig  bool
		isTrans   bool
		isRemote  bool
		wantError string
	}{
		{"config", cfg, true, false, false, "viber client not configured: host is not defined"},
		{"transport", transport, false, true, false, "viber send_message: transport error: connection refused"},
		{"remote", remote, false, false, true, "invalid token"},
		{"wrapped remote", fmt.Errorf("send: %w", remote), false, false, true, "send: invalid token"},
		{"plain", errors.New("x"), false, false, false, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigurationError(tt.err); got != tt.isConfig {
				t.Errorf("IsConfigurationError = %v, want %v", got, tt.isConfig)
			}
			if got := IsTransportError(tt.err); got != tt.isTrans {
				t.Errorf("IsTransportError = %v, want %v", got, tt.isTrans)
			}
			if got := IsRemoteAPIError(tt.err); got != tt.isRemote {
				t.Errorf("IsRemoteAPIError = %v, want %v", got, tt.isRemote)
			}
			if tt.err.Error() != tt.wantError {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantError)
			}
		})
	}
}

func TestTransportError_StatusInMessage(t *testing.T) {
	err := &TransportError{Endpoint: PathGetOnline, StatusCode: 502, Err: errors.New("bad gateway")}
	want := "viber get_online: transport error (HTTP 502): bad gateway"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, err.Err) {
		t.Error("TransportError should unwrap to its cause")
	}
}
