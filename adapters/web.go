package adapters

import (
	"time"

	"github.com/google/uuid"

	"parley/models"
)

// NormalizeWebMessage converts a raw websocket message into a MessageEnvelope.
func NormalizeWebMessage(sessionID string, incoming models.Incoming) models.MessageEnvelope {
	return models.MessageEnvelope{
		MessageID: uuid.New().String(),
		SessionID: sessionID,
		Channel:   "web",
		UserID:    incoming.UserID,
		Timestamp: time.Now().UTC(),
		Content: models.MessageContent{
			Type: "text",
			Text: incoming.Text,
		},
		Metadata: models.MessageMetadata{
			Language:     "en",
			PlatformData: map[string]interface{}{},
		},
	}
}
