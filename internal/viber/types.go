package viber

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Response is a decoded API reply. It is returned as-is, nested fields included.
type Response map[string]any

func (r Response) statusMessage() (string, bool) {
	v, ok := r["status_message"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StatusMessage returns the status_message field, or "" when absent.
func (r Response) StatusMessage() string {
	s, _ := r.statusMessage()
	return s
}

// Status returns the numeric status code, or -1 when absent.
func (r Response) Status() int {
	switch v := r["status"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return -1
		}
		return int(n)
	default:
		return -1
	}
}

// decodeResponse parses a JSON object reply. Numbers are kept as
// json.Number so 64-bit message tokens survive intact.
func decodeResponse(data []byte) (Response, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r Response
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	if r == nil {
		return nil, errors.New("response is not a JSON object")
	}
	return r, nil
}

// Decode converts the response into a typed value.
func (r Response) Decode(v any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to re-encode response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Message types accepted by send_message and broadcast_message.
const (
	MessageText      = "text"
	MessagePicture   = "picture"
	MessageVideo     = "video"
	MessageFile      = "file"
	MessageLocation  = "location"
	MessageContact   = "contact"
	MessageSticker   = "sticker"
	MessageURL       = "url"
	MessageRichMedia = "rich_media"
)

// MessageTypes lists the message types in API order.
var MessageTypes = []string{
	MessageText, MessagePicture, MessageVideo, MessageFile, MessageLocation,
	MessageContact, MessageSticker, MessageURL, MessageRichMedia,
}

// Webhook event types.
const (
	EventDelivered    = "delivered"
	EventSeen         = "seen"
	EventFailed       = "failed"
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventConversation = "conversation_started"
	EventMessage      = "message"
	EventWebhook      = "webhook"
)

// API limits enforced by the remote side.
const (
	MaxBroadcastReceivers = 300
	MaxOnlineIDs          = 100
	MaxTextLength         = 7000
)

// Sender identifies the bot on an outgoing message.
type Sender struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Location is a geographic point.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Contact is a shared phone contact.
type Contact struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Message is the common payload of send_message and broadcast_message.
type Message struct {
	Receiver      string    `json:"receiver,omitempty"`
	MinAPIVersion int       `json:"min_api_version,omitempty"`
	Sender        *Sender   `json:"sender,omitempty"`
	TrackingData  string    `json:"tracking_data,omitempty"`
	Type          string    `json:"type"`
	Text          string    `json:"text,omitempty"`
	Media         string    `json:"media,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	Size          int64     `json:"size,omitempty"`
	Duration      int       `json:"duration,omitempty"`
	FileName      string    `json:"file_name,omitempty"`
	StickerID     int       `json:"sticker_id,omitempty"`
	Location      *Location `json:"location,omitempty"`
	Contact       *Contact  `json:"contact,omitempty"`
	Keyboard      any       `json:"keyboard,omitempty"`
	RichMedia     any       `json:"rich_media,omitempty"`
}

// BroadcastRequest is the body of broadcast_message.
type BroadcastRequest struct {
	BroadcastList []string `json:"broadcast_list"`
	Message
}

// WebhookRequest is the body of set_webhook. An empty URL removes the webhook.
type WebhookRequest struct {
	URL        string   `json:"url"`
	EventTypes []string `json:"event_types,omitempty"`
	SendName   bool     `json:"send_name,omitempty"`
	SendPhoto  bool     `json:"send_photo,omitempty"`
}

// UserDetailsRequest is the body of get_user_details.
type UserDetailsRequest struct {
	ID string `json:"id"`
}

// OnlineRequest is the body of get_online.
type OnlineRequest struct {
	IDs []string `json:"ids"`
}

// SendResult is the reply of send_message.
type SendResult struct {
	Status        int    `json:"status"`
	StatusMessage string `json:"status_message"`
	MessageToken  int64  `json:"message_token"`
	ChatHostname  string `json:"chat_hostname,omitempty"`
}

// BroadcastFailure is one receiver broadcast_message could not reach.
type BroadcastFailure struct {
	Receiver      string `json:"receiver"`
	Status        int    `json:"status"`
	StatusMessage string `json:"status_message"`
}

// BroadcastResult is the reply of broadcast_message.
type BroadcastResult struct {
	Status        int                `json:"status"`
	StatusMessage string             `json:"status_message"`
	MessageToken  int64              `json:"message_token"`
	FailedList    []BroadcastFailure `json:"failed_list,omitempty"`
}

// Member is a public account admin.
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role"`
}

// AccountInfo is the reply of get_account_info.
type AccountInfo struct {
	Status           int       `json:"status"`
	StatusMessage    string    `json:"status_message"`
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	URI              string    `json:"uri"`
	Icon             string    `json:"icon,omitempty"`
	Background       string    `json:"background,omitempty"`
	Category         string    `json:"category,omitempty"`
	Subcategory      string    `json:"subcategory,omitempty"`
	Location         *Location `json:"location,omitempty"`
	Country          string    `json:"country,omitempty"`
	Webhook          string    `json:"webhook,omitempty"`
	EventTypes       []string  `json:"event_types,omitempty"`
	SubscribersCount int       `json:"subscribers_count"`
	Members          []Member  `json:"members,omitempty"`
}

// User is a Viber user profile.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Avatar          string `json:"avatar,omitempty"`
	Country         string `json:"country,omitempty"`
	Language        string `json:"language,omitempty"`
	PrimaryDeviceOS string `json:"primary_device_os,omitempty"`
	APIVersion      int    `json:"api_version,omitempty"`
	ViberVersion    string `json:"viber_version,omitempty"`
	MCC             int    `json:"mcc,omitempty"`
	MNC             int    `json:"mnc,omitempty"`
	DeviceType      string `json:"device_type,omitempty"`
}

// UserDetails is the reply of get_user_details.
type UserDetails struct {
	Status        int    `json:"status"`
	StatusMessage string `json:"status_message"`
	User          User   `json:"user"`
}

// OnlineUser is one entry of get_online.
type OnlineUser struct {
	ID                  string `json:"id"`
	OnlineStatus        int    `json:"online_status"`
	OnlineStatusMessage string `json:"online_status_message"`
	LastOnline          int64  `json:"last_online,omitempty"`
}

// OnlineStatus is the reply of get_online.
type OnlineStatus struct {
	Status        int          `json:"status"`
	StatusMessage string       `json:"status_message"`
	Users         []OnlineUser `json:"users"`
}
