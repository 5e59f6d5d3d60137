package router_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/agent"
	"parley/errors"
	"parley/models"
	"parley/router"
	"parley/session"
)

type fakeIdentifier struct {
	identities map[string]agent.Identity
	err        error
	calls      []string
}

func (f *fakeIdentifier) Identify(_ context.Context, token string) (agent.Identity, error) {
	f.calls = append(f.calls, token)
	if f.err != nil {
		return agent.Identity{}, f.err
	}
	return f.identities[token], nil
}

type domainCall struct {
	text        string
	accountUUID string
}

type fakeDomain struct {
	reply agent.Reply
	err   error
	calls []domainCall
}

func (f *fakeDomain) Handle(_ context.Context, msg models.InboundMessage, accountUUID string) (agent.Reply, error) {
	f.calls = append(f.calls, domainCall{text: msg.Text, accountUUID: accountUUID})
	if f.err != nil {
		return agent.Reply{}, f.err
	}
	return f.reply, nil
}

type countingStore struct {
	session.Store
	calls int
}

func (s *countingStore) GetOrCreate(ctx context.Context, sessionID string) (session.State, error) {
	s.calls++
	return s.Store.GetOrCreate(ctx, sessionID)
}

func (s *countingStore) MarkIdentified(ctx context.Context, sessionID, accountUUID string) error {
	s.calls++
	return s.Store.MarkIdentified(ctx, sessionID, accountUUID)
}

func newTestRouter(store session.Store, identifier agent.Identifier, domain agent.DomainAgent) *router.Router {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return router.New(log, nil, store, identifier, domain)
}

func Test_ProcessMessage_rejects_invalid_payload_before_touching_state(t *testing.T) {
	store := &countingStore{Store: session.NewMemoryStore()}
	r := newTestRouter(store, &fakeIdentifier{}, &fakeDomain{})

	_, err := r.ProcessMessage(context.Background(), map[string]interface{}{"session_id": "s2"})

	assert.ErrorIs(t, err, errors.ErrMissingText)
	assert.Zero(t, store.calls)
}

func Test_ProcessMessage_identifies_anonymous_caller_for_a_single_call(t *testing.T) {
	identifier := &fakeIdentifier{identities: map[string]agent.Identity{
		"valid-abc": {Identified: true, AccountUUID: "uuid-1234"},
	}}
	r := newTestRouter(session.NewMemoryStore(), identifier, &fakeDomain{})
	payload := map[string]interface{}{"text": "valid-abc"}

	resp, err := r.ProcessMessage(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, models.ResponseIdentified, resp.Type)
	assert.Equal(t, "uuid-1234", resp.AccountUUID)

	// Nothing was persisted: the same caller goes through identification again.
	_, err = r.ProcessMessage(context.Background(), payload)
	require.NoError(t, err)
	assert.Len(t, identifier.calls, 2)
}

func Test_ProcessMessage_keeps_session_retryable_after_failed_identification(t *testing.T) {
	identifier := &fakeIdentifier{identities: map[string]agent.Identity{
		"valid-xyz": {Identified: true, AccountUUID: "uuid-1234"},
	}}
	store := session.NewMemoryStore()
	domain := &fakeDomain{reply: agent.Reply{Text: "let's talk"}}
	r := newTestRouter(store, identifier, domain)

	resp, err := r.ProcessMessage(context.Background(), map[string]interface{}{
		"text": "bad-token", "session_id": "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseIdentificationFailed, resp.Type)

	state, err := store.GetOrCreate(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, state.Identified())

	resp, err = r.ProcessMessage(context.Background(), map[string]interface{}{
		"text": "valid-xyz", "session_id": "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseIdentified, resp.Type)

	state, err = store.GetOrCreate(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, state.Identified())
	assert.Equal(t, "uuid-1234", state.AccountUUID())
}

func Test_ProcessMessage_routes_identified_sessions_to_the_domain_agent(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.MarkIdentified(context.Background(), "s4", "uuid-555"))
	identifier := &fakeIdentifier{}
	domain := &fakeDomain{reply: agent.Reply{Text: "here is your plan"}}
	r := newTestRouter(store, identifier, domain)

	resp, err := r.ProcessMessage(context.Background(), map[string]interface{}{
		"text": "hello", "session_id": "s4",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ResponseMessage, resp.Type)
	assert.Equal(t, "here is your plan", resp.Text)
	require.Len(t, domain.calls, 1)
	assert.Equal(t, domainCall{text: "hello", accountUUID: "uuid-555"}, domain.calls[0])
	assert.Empty(t, identifier.calls, "identified sessions never re-enter identification")
}

func Test_ProcessMessage_treats_provider_errors_as_failed_attempts(t *testing.T) {
	identifier := &fakeIdentifier{err: fmt.Errorf("provider unreachable")}
	store := session.NewMemoryStore()
	r := newTestRouter(store, identifier, &fakeDomain{})

	resp, err := r.ProcessMessage(context.Background(), map[string]interface{}{
		"text": "valid-abc", "session_id": "s1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ResponseIdentificationFailed, resp.Type)

	state, err := store.GetOrCreate(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, state.Identified())
}

func Test_ProcessMessage_treats_empty_account_uuid_as_failure(t *testing.T) {
	identifier := &fakeIdentifier{identities: map[string]agent.Identity{
		"valid-abc": {Identified: true, AccountUUID: ""},
	}}
	r := newTestRouter(session.NewMemoryStore(), identifier, &fakeDomain{})

	resp, err := r.ProcessMessage(context.Background(), map[string]interface{}{
		"text": "valid-abc", "session_id": "s1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ResponseIdentificationFailed, resp.Type)
}

func Test_ProcessMessage_propagates_domain_agent_errors_unmodified(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.MarkIdentified(context.Background(), "s4", "uuid-555"))
	domainErr := fmt.Errorf("negotiation backend down")
	r := newTestRouter(store, &fakeIdentifier{}, &fakeDomain{err: domainErr})

	_, err := r.ProcessMessage(context.Background(), map[string]interface{}{
		"text": "hello", "session_id": "s4",
	})

	assert.Equal(t, domainErr, err)

	state, err := store.GetOrCreate(context.Background(), "s4")
	require.NoError(t, err)
	assert.Equal(t, "uuid-555", state.AccountUUID())
}
