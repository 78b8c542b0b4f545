package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/iocontext"
	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

// messageOptions are the message flags shared by send and broadcast.
type messageOptions struct {
	Type          string
	Text          string
	Media         string
	Thumbnail     string
	Size          int64
	Duration      int
	FileName      string
	StickerID     int
	Lat           float64
	Lon           float64
	ContactName   string
	ContactPhone  string
	SenderName    string
	SenderAvatar  string
	TrackingData  string
	MinAPIVersion int
	Keyboard      string
	RichMedia     string
}

func (o *messageOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.Type, "type", "t", viber.MessageText, "Message type: "+strings.Join(viber.MessageTypes, "|"))
	f.StringVar(&o.Text, "text", "", "Message text (use - to read from stdin)")
	f.StringVar(&o.Media, "media", "", "Media URL (picture, video, file) or link (url)")
	f.StringVar(&o.Thumbnail, "thumbnail", "", "Thumbnail URL for picture and video")
	f.Int64Var(&o.Size, "size", 0, "Media size in bytes (video, file)")
	f.IntVar(&o.Duration, "duration", 0, "Video duration in seconds")
	f.StringVar(&o.FileName, "file-name", "", "File name shown to the receiver")
	f.IntVar(&o.StickerID, "sticker-id", 0, "Sticker id")
	f.Float64Var(&o.Lat, "lat", 0, "Location latitude")
	f.Float64Var(&o.Lon, "lon", 0, "Location longitude")
	f.StringVar(&o.ContactName, "contact-name", "", "Contact name")
	f.StringVar(&o.ContactPhone, "contact-phone", "", "Contact phone number")
	f.StringVar(&o.SenderName, "sender-name", "", "Sender name shown to receivers (env VIBER_SENDER_NAME)")
	f.StringVar(&o.SenderAvatar, "sender-avatar", "", "Sender avatar URL")
	f.StringVar(&o.TrackingData, "tracking-data", "", "Opaque data echoed back in webhook callbacks")
	f.IntVar(&o.MinAPIVersion, "min-api-version", 0, "Minimal client API version required")
	f.StringVar(&o.Keyboard, "keyboard", "", "Keyboard as JSON, or @file")
	f.StringVar(&o.RichMedia, "rich-media", "", "Rich media as JSON, or @file")
	flagAlias(f, "sender-name", "sn")
	flagAlias(f, "tracking-data", "td")
}

// build validates the flags and returns the message body without receiver.
func (o *messageOptions) build(cmd *cobra.Command) (viber.Message, error) {
	msg := viber.Message{
		Type:          strings.ToLower(strings.TrimSpace(o.Type)),
		MinAPIVersion: o.MinAPIVersion,
		TrackingData:  o.TrackingData,
	}
	if !slices.Contains(viber.MessageTypes, msg.Type) {
		return msg, fmt.Errorf("invalid value for --type %q: must be one of %s", o.Type, strings.Join(viber.MessageTypes, ", "))
	}

	name := strings.TrimSpace(o.SenderName)
	if name == "" {
		name = strings.TrimSpace(os.Getenv("VIBER_SENDER_NAME"))
	}
	if name == "" {
		return msg, fmt.Errorf("--sender-name is required (or set VIBER_SENDER_NAME)")
	}
	if err := validation.ValidateSenderName(name); err != nil {
		return msg, err
	}
	msg.Sender = &viber.Sender{Name: name, Avatar: strings.TrimSpace(o.SenderAvatar)}

	if err := validation.ValidateTrackingData(o.TrackingData); err != nil {
		return msg, err
	}

	text := o.Text
	if text == "-" {
		data, err := iocontext.ReadInput(cmd.Context(), "-")
		if err != nil {
			return msg, err
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	switch msg.Type {
	case viber.MessageText:
		if err := validation.ValidateMessageText(text); err != nil {
			return msg, err
		}
		msg.Text = text
	case viber.MessagePicture:
		if o.Media == "" {
			return msg, fmt.Errorf("--media is required for picture messages")
		}
		msg.Text, msg.Media, msg.Thumbnail = text, o.Media, o.Thumbnail
	case viber.MessageVideo:
		if o.Media == "" || o.Size <= 0 {
			return msg, fmt.Errorf("--media and --size are required for video messages")
		}
		msg.Media, msg.Size, msg.Duration, msg.Thumbnail = o.Media, o.Size, o.Duration, o.Thumbnail
	case viber.MessageFile:
		if o.Media == "" || o.Size <= 0 || o.FileName == "" {
			return msg, fmt.Errorf("--media, --size and --file-name are required for file messages")
		}
		msg.Media, msg.Size, msg.FileName = o.Media, o.Size, o.FileName
	case viber.MessageURL:
		if o.Media == "" {
			return msg, fmt.Errorf("--media is required for url messages")
		}
		msg.Media = o.Media
	case viber.MessageSticker:
		if o.StickerID <= 0 {
			return msg, fmt.Errorf("--sticker-id must be positive for sticker messages")
		}
		msg.StickerID = o.StickerID
	case viber.MessageLocation:
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return msg, fmt.Errorf("--lat and --lon are required for location messages")
		}
		msg.Location = &viber.Location{Lat: o.Lat, Lon: o.Lon}
	case viber.MessageContact:
		if o.ContactName == "" || o.ContactPhone == "" {
			return msg, fmt.Errorf("--contact-name and --contact-phone are required for contact messages")
		}
		msg.Contact = &viber.Contact{Name: o.ContactName, PhoneNumber: o.ContactPhone}
	case viber.MessageRichMedia:
		if o.RichMedia == "" {
			return msg, fmt.Errorf("--rich-media is required for rich_media messages")
		}
	}

	if o.RichMedia != "" {
		v, err := readJSONFlag(cmd, "rich-media", o.RichMedia)
		if err != nil {
			return msg, err
		}
		msg.RichMedia = v
	}
	if o.Keyboard != "" {
		v, err := readJSONFlag(cmd, "keyboard", o.Keyboard)
		if err != nil {
			return msg, err
		}
		msg.Keyboard = v
	}
	return msg, nil
}

// readJSONFlag parses an inline JSON object or an @file reference.
func readJSONFlag(cmd *cobra.Command, name, value string) (json.RawMessage, error) {
	data := []byte(value)
	if path, ok := strings.CutPrefix(value, "@"); ok {
		var err error
		if data, err = iocontext.ReadInput(cmd.Context(), path); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidateJSONPayload(string(data)); err != nil {
		return nil, fmt.Errorf("invalid value for --%s: %w", name, err)
	}
	return json.RawMessage(data), nil
}
