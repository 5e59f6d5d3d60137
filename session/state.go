// Package session tracks per-conversation identification state and history.
// It is the only shared mutable state of the orchestrator.
package session

import (
	"context"

	"parley/models"
)

// State is the identification state of one conversation session.
// A session is identified exactly when it carries an account uuid, so the
// invalid identified-without-account combination cannot be represented.
// The zero value is unidentified.
type State struct {
	accountUUID string
}

func Unidentified() State {
	return State{}
}

func IdentifiedAs(accountUUID string) State {
	return State{accountUUID: accountUUID}
}

func (s State) Identified() bool {
	return s.accountUUID != ""
}

func (s State) AccountUUID() string {
	return s.accountUUID
}

// Store holds identification state keyed by session id.
//
// GetOrCreate returns the stored state for a known session id, or a fresh
// unidentified state otherwise. An empty session id means an anonymous
// caller: every call yields a fresh state and nothing is persisted.
//
// MarkIdentified transitions a session to identified once. The transition
// is one-way and idempotent: the first account uuid wins and later calls
// are no-ops. Marking an anonymous session fails with
// errors.ErrAnonymousSession.
type Store interface {
	GetOrCreate(ctx context.Context, sessionID string) (State, error)
	MarkIdentified(ctx context.Context, sessionID, accountUUID string) error
}

// History stores the recent conversation turns of a session, for agents
// that need context across calls. The orchestrator core itself never
// retains messages.
type History interface {
	LoadHistory(ctx context.Context, sessionID string) ([]models.ConversationMessage, error)
	AppendExchange(ctx context.Context, sessionID, userMsg, agentMsg string) error
}
