package models

import "time"

type MessageContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type MessageMetadata struct {
	Language     string                 `json:"language"`
	PlatformData map[string]interface{} `json:"platform_data"`
}

// MessageEnvelope is the normalized form of an inbound channel message,
// carried on the Redis Stream between the channel adapter and the orchestrator.
type MessageEnvelope struct {
	MessageID string          `json:"message_id"`
	SessionID string          `json:"session_id"`
	Channel   string          `json:"channel"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Content   MessageContent  `json:"content"`
	Metadata  MessageMetadata `json:"metadata"`
}

// Payload flattens the envelope back into the untrusted key/value shape the
// validator consumes, so stream and HTTP callers go through the same gate.
func (e MessageEnvelope) Payload() map[string]interface{} {
	return map[string]interface{}{
		"text":       e.Content.Text,
		"session_id": e.SessionID,
		"user_id":    e.UserID,
	}
}

// Incoming is the raw JSON a websocket client sends.
type Incoming struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

// ConversationMessage is one turn of stored conversation history.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response types published back to the channel.
const (
	ResponseConnected            = "connected"
	ResponseTyping               = "typing"
	ResponseMessage              = "message"
	ResponseIdentified           = "identified"
	ResponseIdentificationFailed = "identification_failed"
	ResponseError                = "error"
)

type Response struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	AccountUUID string `json:"account_uuid,omitempty"`
}
