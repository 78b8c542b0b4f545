package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viber/viber-cli/internal/config"
	"github.com/viber/viber-cli/internal/viber"
)

// HandleError renders err with suggestions for the terminal.
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder
	var remote *viber.RemoteAPIError
	var transport *viber.TransportError
	var cfgErr *viber.ConfigurationError

	switch {
	case errors.As(err, &remote):
		fmt.Fprintf(&msg, "Viber API rejected %s: %s (%s)\n\n", remote.Endpoint, remote.Message, viber.StatusName(remote.Status))
		msg.WriteString(suggestionsForStatus(remote.Status))

	case errors.As(err, &cfgErr), errors.Is(err, config.ErrNotConfigured), errors.Is(err, errNoToken):
		fmt.Fprintf(&msg, "Configuration error: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: vb auth login --token <token>\n")
		msg.WriteString("  - Or set VIBER_AUTH_TOKEN\n")
		msg.WriteString("  - Inspect resolved settings: vb config show\n")

	case errors.As(err, &transport):
		fmt.Fprintf(&msg, "Request failed: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		if transport.StatusCode >= 500 {
			msg.WriteString("  - The API or proxy returned a server error; retry with --retries 3\n")
		} else if transport.StatusCode != 0 {
			msg.WriteString("  - The reply was not a Viber JSON object; check --host and --proxy\n")
		} else {
			msg.WriteString("  - Check your network connection and --host\n")
			msg.WriteString("  - Retry transient failures with --retries 3\n")
		}
		msg.WriteString("  - Use --debug to see the request\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatus(status int) string {
	var s strings.Builder
	s.WriteString("Suggestions:\n")
	switch status {
	case viber.StatusInvalidAuthToken:
		s.WriteString("  - The auth token is invalid; copy it again from the bot's admin panel\n")
		s.WriteString("  - Run: vb auth login --token <token>\n")
	case viber.StatusBadData, viber.StatusMissingData:
		s.WriteString("  - Check the request body; use vb call with -d to send it verbatim\n")
	case viber.StatusReceiverNotRegistered, viber.StatusReceiverNotSubscribed:
		s.WriteString("  - The receiver has not subscribed to the bot or has left it\n")
	case viber.StatusWebhookNotSet:
		s.WriteString("  - Set a webhook first: vb webhook set <https-url>\n")
	case viber.StatusTooManyRequests:
		s.WriteString("  - Slow down; lower --concurrency\n")
	default:
		s.WriteString("  - Use --debug for more details\n")
	}
	return s.String()
}

// errorPayload is the JSON rendering of a failure.
func errorPayload(err error) map[string]any {
	body := map[string]any{"message": err.Error(), "kind": "error"}
	var remote *viber.RemoteAPIError
	var transport *viber.TransportError
	switch {
	case errors.As(err, &remote):
		body["kind"] = "remote"
		body["endpoint"] = remote.Endpoint
		body["status"] = remote.Status
		body["status_name"] = viber.StatusName(remote.Status)
	case errors.As(err, &transport):
		body["kind"] = "transport"
		body["endpoint"] = transport.Endpoint
		if transport.StatusCode != 0 {
			body["http_status"] = transport.StatusCode
		}
	case viber.IsConfigurationError(err), errors.Is(err, config.ErrNotConfigured), errors.Is(err, errNoToken):
		body["kind"] = "configuration"
	}
	body["exit_code"] = ExitCode(err)
	return map[string]any{"error": body}
}
