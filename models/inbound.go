package models

import (
	"parley/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// InboundMessage is a validated inbound turn. SessionID and UserID are
// empty when the caller did not correlate the message.
type InboundMessage struct {
	Text      string `validate:"required"`
	SessionID string
	UserID    string
}

// ValidateInbound is the first line of defense for external payloads.
// Only text is mandatory; session and user ids pass through untouched.
// Optional fields that are not strings are treated as absent (deep schema
// validation is out of scope).
func ValidateInbound(payload map[string]interface{}) (InboundMessage, error) {
	msg := InboundMessage{
		Text:      stringField(payload, "text"),
		SessionID: stringField(payload, "session_id"),
		UserID:    stringField(payload, "user_id"),
	}
	if err := validate.Struct(msg); err != nil {
		return InboundMessage{}, errors.ErrMissingText
	}
	return msg, nil
}

func stringField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
