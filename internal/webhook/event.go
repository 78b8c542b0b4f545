package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/viber/viber-cli/internal/viber"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body keyed
// by the account token.
const SignatureHeader = "X-Viber-Content-Signature"

// Event is a callback delivered by Viber.
type Event struct {
	Event        string         `json:"event"`
	Timestamp    int64          `json:"timestamp"`
	ChatHostname string         `json:"chat_hostname,omitempty"`
	MessageToken int64          `json:"message_token,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	Desc         string         `json:"desc,omitempty"`
	Type         string         `json:"type,omitempty"`
	Context      string         `json:"context,omitempty"`
	Subscribed   bool           `json:"subscribed,omitempty"`
	Silent       bool           `json:"silent,omitempty"`
	User         *viber.User    `json:"user,omitempty"`
	Sender       *viber.User    `json:"sender,omitempty"`
	Message      *viber.Message `json:"message,omitempty"`
}

// Sign returns the signature Viber computes for body.
func Sign(body []byte, token string) string {
	mac := hmac.New(sha256.New, []byte(token))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body.
func Verify(body []byte, signature, token string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	want, _ := hex.DecodeString(Sign(body, token))
	return hmac.Equal(got, want)
}
