package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"parley/adapters"
	"parley/models"
)

const (
	streamKey      = "msg:inbound"
	responsePrefix = "response:"
)

// WSHandler bridges websocket clients to the orchestrator: inbound text is
// normalized into envelopes on the Redis Stream, responses come back over
// the session's pub/sub channel.
type WSHandler struct {
	log            *slog.Logger
	rdb            *redis.Client
	allowedOrigins map[string]bool
}

func NewWSHandler(log *slog.Logger, rdb *redis.Client, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		log:            log,
		rdb:            rdb,
		allowedOrigins: lo.SliceToMap(allowedOrigins, func(o string) (string, bool) { return o, true }),
	}
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // allow non-browser clients
	}
	return h.allowedOrigins[origin]
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	connMsg := models.Response{
		Type:      models.ResponseConnected,
		SessionID: sessionID,
	}
	if err := conn.WriteJSON(connMsg); err != nil {
		h.log.Warn("failed to send connected message", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	pubsub := h.rdb.Subscribe(ctx, responsePrefix+sessionID)
	defer pubsub.Close()

	// Forward orchestrator responses from pub/sub to the socket.
	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var resp models.Response
				if err := json.Unmarshal([]byte(msg.Payload), &resp); err != nil {
					h.log.Warn("failed to unmarshal response", "error", err)
					continue
				}
				if err := conn.WriteJSON(resp); err != nil {
					h.log.Warn("failed to write to websocket", "error", err)
					cancel()
					return
				}
			}
		}
	}()

	// Read client messages and publish them to the inbound stream.
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket closed unexpectedly", "error", err)
			}
			return
		}

		var incoming models.Incoming
		if err := json.Unmarshal(message, &incoming); err != nil {
			h.log.Warn("invalid message format", "error", err)
			conn.WriteJSON(models.Response{
				Type: models.ResponseError,
				Text: "Invalid message format. Send JSON with a 'text' field.",
			})
			continue
		}

		if incoming.Text == "" {
			continue
		}

		envelope := adapters.NormalizeWebMessage(sessionID, incoming)
		envelopeJSON, err := json.Marshal(envelope)
		if err != nil {
			h.log.Error("failed to marshal envelope", "error", err)
			continue
		}

		if err := h.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: streamKey,
			Values: map[string]interface{}{
				"envelope": string(envelopeJSON),
			},
		}).Err(); err != nil {
			h.log.Error("failed to publish to stream", "error", err)
			conn.WriteJSON(models.Response{
				Type: models.ResponseError,
				Text: "Sorry, I'm having trouble processing your message. Please try again.",
			})
		}
	}
}
