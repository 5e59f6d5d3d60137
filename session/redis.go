package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parley/errors"
	"parley/models"
)

const (
	sessionPrefix = "session:"
	historyPrefix = "history:"
	accountField  = "account_uuid"
	maxExchanges  = 10
)

// RedisStore persists identification state and conversation history in
// Redis. Keys expire after the configured TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) GetOrCreate(ctx context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return Unidentified(), nil
	}
	accountUUID, err := s.rdb.HGet(ctx, sessionPrefix+sessionID, accountField).Result()
	if err == redis.Nil {
		return Unidentified(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to load session: %w", err)
	}
	return IdentifiedAs(accountUUID), nil
}

func (s *RedisStore) MarkIdentified(ctx context.Context, sessionID, accountUUID string) error {
	if sessionID == "" {
		return errors.ErrAnonymousSession
	}
	if accountUUID == "" {
		return errors.ErrEmptyAccountUUID
	}
	key := sessionPrefix + sessionID
	// HSETNX is atomic: the first identification wins, concurrent or
	// repeated attempts leave the stored account untouched.
	if err := s.rdb.HSetNX(ctx, key, accountField, accountUUID).Err(); err != nil {
		return fmt.Errorf("failed to mark session identified: %w", err)
	}
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh session ttl: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadHistory(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	data, err := s.rdb.Get(ctx, historyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return []models.ConversationMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var history []models.ConversationMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return history, nil
}

func (s *RedisStore) SaveHistory(ctx context.Context, sessionID string, history []models.ConversationMessage) error {
	// Keep only the last maxExchanges turns.
	if len(history) > 2*maxExchanges {
		history = history[len(history)-2*maxExchanges:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.rdb.Set(ctx, historyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func (s *RedisStore) AppendExchange(ctx context.Context, sessionID, userMsg, agentMsg string) error {
	history, err := s.LoadHistory(ctx, sessionID)
	if err != nil {
		return err
	}

	history = append(history,
		models.ConversationMessage{Role: "user", Content: userMsg},
		models.ConversationMessage{Role: "assistant", Content: agentMsg},
	)

	return s.SaveHistory(ctx, sessionID, history)
}
