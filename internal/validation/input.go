package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input limits of the Viber API.
const (
	MaxTextLength       = 7000
	MaxSenderNameLength = 28
	MaxTrackingData     = 4096
	MaxJSONPayload      = 1048576
)

// ValidateMessageText checks a text message body.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return fmt.Errorf("message text exceeds maximum length of %d characters (got %d)", MaxTextLength, n)
	}
	return nil
}

// ValidateSenderName checks the sender name shown to receivers.
func ValidateSenderName(name string) error {
	if name == "" {
		return nil
	}
	if n := utf8.RuneCountInString(name); n > MaxSenderNameLength {
		return fmt.Errorf("sender name exceeds maximum length of %d characters (got %d)", MaxSenderNameLength, n)
	}
	return nil
}

// ValidateTrackingData checks the tracking_data attachment.
func ValidateTrackingData(data string) error {
	if n := len(data); n > MaxTrackingData {
		return fmt.Errorf("tracking data exceeds maximum size of %d bytes (got %d)", MaxTrackingData, n)
	}
	return nil
}

// ValidateReceivers checks a receiver id list against an upper bound.
// max <= 0 means unbounded.
func ValidateReceivers(ids []string, max int) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one receiver is required")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("receiver id cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate receiver id %q", id)
		}
		seen[id] = struct{}{}
	}
	if max > 0 && len(ids) > max {
		return fmt.Errorf("too many receivers: %d (maximum %d)", len(ids), max)
	}
	return nil
}

// ValidateJSONPayload checks that payload is a JSON object within size limits.
func ValidateJSONPayload(payload string) error {
	if strings.TrimSpace(payload) == "" {
		return fmt.Errorf("JSON payload cannot be empty")
	}
	if n := len(payload); n > MaxJSONPayload {
		return fmt.Errorf("JSON payload exceeds maximum size of %d bytes (got %d)", MaxJSONPayload, n)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return fmt.Errorf("JSON payload must be an object: %w", err)
	}
	return nil
}

// ParsePositiveInt parses s as an integer greater than zero.
func ParsePositiveInt(s string, fieldName string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not a number", fieldName, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", fieldName, n)
	}
	return n, nil
}
