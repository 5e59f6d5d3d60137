// Package router decides, per inbound message, which agent handles it:
// the identifier while the session is unverified, the domain agent after.
// It contains no business rules and never runs domain logic against an
// unverified caller.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"parley/agent"
	parleyerrors "parley/errors"
	"parley/models"
	"parley/session"
)

const (
	streamKey      = "msg:inbound"
	consumerGroup  = "orchestrator-group"
	consumerName   = "orchestrator-1"
	responsePrefix = "response:"

	identifiedText     = "You're verified. How can I help with your account today?"
	identifyFailedText = "I couldn't verify your identity. Please send a valid identification token."
	domainErrorText    = "Sorry, I'm having trouble responding right now. Please try again."
)

type Router struct {
	log        *slog.Logger
	rdb        *redis.Client
	store      session.Store
	identifier agent.Identifier
	domain     agent.DomainAgent
}

func New(log *slog.Logger, rdb *redis.Client, store session.Store, identifier agent.Identifier, domain agent.DomainAgent) *Router {
	return &Router{
		log:        log,
		rdb:        rdb,
		store:      store,
		identifier: identifier,
		domain:     domain,
	}
}

// ProcessMessage is the single entry point of the orchestration core.
//
// The payload is validated before any state is touched. Unidentified
// sessions treat the text as an identification token; identified sessions
// go straight to the domain agent and never re-enter identification.
// Validation and consistency errors are returned for the transport to map;
// domain agent errors propagate unmodified; a failed identification is a
// normal response, not an error, and leaves the session retryable.
func (r *Router) ProcessMessage(ctx context.Context, payload map[string]interface{}) (models.Response, error) {
	msg, err := models.ValidateInbound(payload)
	if err != nil {
		return models.Response{}, err
	}

	state, err := r.store.GetOrCreate(ctx, msg.SessionID)
	if err != nil {
		return models.Response{}, fmt.Errorf("session lookup failed: %w", err)
	}

	if state.Identified() {
		reply, err := r.domain.Handle(ctx, msg, state.AccountUUID())
		if err != nil {
			return models.Response{}, err
		}
		return models.Response{
			Type:      models.ResponseMessage,
			Text:      reply.Text,
			SessionID: msg.SessionID,
		}, nil
	}

	return r.identify(ctx, msg)
}

func (r *Router) identify(ctx context.Context, msg models.InboundMessage) (models.Response, error) {
	identity, err := r.identifier.Identify(ctx, msg.Text)
	if err != nil {
		// Provider trouble means the attempt failed, not that the call is
		// fatal. The session stays unidentified and the caller may retry.
		r.log.Warn("identification provider error", "session_id", msg.SessionID, "error", err)
		identity = agent.Identity{}
	}

	if !identity.Identified || identity.AccountUUID == "" {
		return models.Response{
			Type:      models.ResponseIdentificationFailed,
			Text:      identifyFailedText,
			SessionID: msg.SessionID,
		}, nil
	}

	// Anonymous sessions cannot be persisted; the success holds for this
	// call only.
	if msg.SessionID != "" {
		if err := r.store.MarkIdentified(ctx, msg.SessionID, identity.AccountUUID); err != nil {
			return models.Response{}, err
		}
	}

	return models.Response{
		Type:        models.ResponseIdentified,
		Text:        identifiedText,
		SessionID:   msg.SessionID,
		AccountUUID: identity.AccountUUID,
	}, nil
}

func (r *Router) EnsureConsumerGroup(ctx context.Context) error {
	err := r.rdb.XGroupCreateMkStream(ctx, streamKey, consumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// ConsumeLoop reads inbound envelopes from the stream until ctx is done.
func (r *Router) ConsumeLoop(ctx context.Context) {
	r.log.Info("starting consumer loop")
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := r.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: consumerName,
			Streams:  []string{streamKey, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err == redis.Nil || err != nil && ctx.Err() != nil {
			continue
		}
		if err != nil {
			r.log.Error("error reading stream", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				r.handleEnvelope(ctx, msg)
			}
		}
	}
}

func (r *Router) handleEnvelope(ctx context.Context, msg redis.XMessage) {
	defer r.rdb.XAck(ctx, streamKey, consumerGroup, msg.ID)

	envelopeJSON, ok := msg.Values["envelope"].(string)
	if !ok {
		r.log.Warn("invalid stream entry, missing envelope field", "id", msg.ID)
		return
	}

	var envelope models.MessageEnvelope
	if err := json.Unmarshal([]byte(envelopeJSON), &envelope); err != nil {
		r.log.Warn("failed to unmarshal envelope", "id", msg.ID, "error", err)
		return
	}

	sessionID := envelope.SessionID
	r.log.Info("processing message", "message_id", envelope.MessageID, "session_id", sessionID)

	r.publishResponse(ctx, sessionID, models.Response{Type: models.ResponseTyping})

	resp, err := r.ProcessMessage(ctx, envelope.Payload())
	if err != nil {
		resp = r.errorResponse(sessionID, envelope.MessageID, err)
	}

	r.publishResponse(ctx, sessionID, resp)
}

func (r *Router) errorResponse(sessionID, messageID string, err error) models.Response {
	switch {
	case errors.Is(err, parleyerrors.ErrMissingText):
		return models.Response{
			Type:      models.ResponseError,
			Text:      err.Error(),
			SessionID: sessionID,
		}
	default:
		r.log.Error("failed to process message", "message_id", messageID, "session_id", sessionID, "error", err)
		return models.Response{
			Type:      models.ResponseError,
			Text:      domainErrorText,
			SessionID: sessionID,
		}
	}
}

func (r *Router) publishResponse(ctx context.Context, sessionID string, resp models.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		r.log.Error("failed to marshal response", "error", err)
		return
	}
	channel := responsePrefix + sessionID
	if err := r.rdb.Publish(ctx, channel, string(data)).Err(); err != nil {
		r.log.Error("failed to publish response", "channel", channel, "error", err)
	}
}
