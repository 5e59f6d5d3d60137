// Package agent defines the capabilities the orchestrator routes to, plus
// the concrete providers shipped with parley. Hosts may inject their own.
package agent

import (
	"context"

	"parley/models"
)

// Identity is the outcome of an identification attempt. AccountUUID is
// non-empty exactly when Identified is true.
type Identity struct {
	Identified  bool
	AccountUUID string
}

// Identifier verifies an opaque token against an identity provider.
// Implementations must be safe for concurrent use; a provider error is
// treated by the orchestrator as a failed attempt, never as fatal.
type Identifier interface {
	Identify(ctx context.Context, token string) (Identity, error)
}

// Reply is a domain agent's answer to one identified turn.
type Reply struct {
	Text      string
	Sources   []string
	ModelUsed string
}

// DomainAgent handles turns for identified sessions. The orchestrator
// guarantees accountUUID is never empty. Errors propagate to the caller
// unmodified.
type DomainAgent interface {
	Handle(ctx context.Context, msg models.InboundMessage, accountUUID string) (Reply, error)
}
