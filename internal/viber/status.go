package viber

import "strconv"

// Status codes returned in the "status" field.
const (
	StatusOK                         = 0
	StatusInvalidURL                 = 1
	StatusInvalidAuthToken           = 2
	StatusBadData                    = 3
	StatusMissingData                = 4
	StatusReceiverNotRegistered      = 5
	StatusReceiverNotSubscribed      = 6
	StatusPublicAccountBlocked       = 7
	StatusPublicAccountNotFound      = 8
	StatusPublicAccountSuspended     = 9
	StatusWebhookNotSet              = 10
	StatusReceiverNoSuitableDevice   = 11
	StatusTooManyRequests            = 12
	StatusAPIVersionNotSupported     = 13
	StatusIncompatibleWithVersion    = 14
	StatusPublicAccountNotAuthorized = 15
	StatusInlineNotAuthorized        = 16
	StatusNoPublicChat               = 17
	StatusCannotSendBroadcast        = 18
	StatusBroadcastNotAllowed        = 19
	StatusUnsupportedCountry         = 20
	StatusPaymentUnsupported         = 21
	StatusFreeMessagesExceeded       = 22
	StatusNoBalance                  = 23
)

var statusNames = map[int]string{
	StatusOK:                         "ok",
	StatusInvalidURL:                 "invalidUrl",
	StatusInvalidAuthToken:           "invalidAuthToken",
	StatusBadData:                    "badData",
	StatusMissingData:                "missingData",
	StatusReceiverNotRegistered:      "receiverNotRegistered",
	StatusReceiverNotSubscribed:      "receiverNotSubscribed",
	StatusPublicAccountBlocked:       "publicAccountBlocked",
	StatusPublicAccountNotFound:      "publicAccountNotFound",
	StatusPublicAccountSuspended:     "publicAccountSuspended",
	StatusWebhookNotSet:              "webhookNotSet",
	StatusReceiverNoSuitableDevice:   "receiverNoSuitableDevice",
	StatusTooManyRequests:            "tooManyRequests",
	StatusAPIVersionNotSupported:     "apiVersionNotSupported",
	StatusIncompatibleWithVersion:    "incompatibleWithVersion",
	StatusPublicAccountNotAuthorized: "publicAccountNotAuthorized",
	StatusInlineNotAuthorized:        "inlineNotAuthorized",
	StatusNoPublicChat:               "noPublicChat",
	StatusCannotSendBroadcast:        "cannotSendBroadcast",
	StatusBroadcastNotAllowed:        "broadcastNotAllowed",
	StatusUnsupportedCountry:         "unsupportedCountry",
	StatusPaymentUnsupported:         "paymentUnsupported",
	StatusFreeMessagesExceeded:       "freeMessagesExceeded",
	StatusNoBalance:                  "noBalance",
}

// StatusName returns the API's name for a status code.
func StatusName(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return "status " + strconv.Itoa(code)
}
