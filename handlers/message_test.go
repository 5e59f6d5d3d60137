package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/agent"
	"parley/handlers"
	"parley/models"
	"parley/router"
	"parley/session"
)

type staticIdentifier struct {
	identity agent.Identity
}

func (s *staticIdentifier) Identify(context.Context, string) (agent.Identity, error) {
	return s.identity, nil
}

type staticDomain struct {
	reply agent.Reply
}

func (s *staticDomain) Handle(context.Context, models.InboundMessage, string) (agent.Reply, error) {
	return s.reply, nil
}

func newTestHandler(identifier agent.Identifier) *handlers.MessageHandler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := router.New(log, nil, session.NewMemoryStore(), identifier, &staticDomain{})
	return handlers.NewMessageHandler(log, r)
}

func Test_MessageHandler_returns_400_for_payload_without_text(t *testing.T) {
	handler := newTestHandler(&staticIdentifier{})
	req := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(`{"session_id":"s2"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ResponseError, resp.Type)
	assert.Equal(t, "missing required field: text", resp.Text)
}

func Test_MessageHandler_returns_the_orchestrator_response(t *testing.T) {
	handler := newTestHandler(&staticIdentifier{identity: agent.Identity{
		Identified: true, AccountUUID: "uuid-1234",
	}})
	req := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(`{"text":"valid-abc"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ResponseIdentified, resp.Type)
	assert.Equal(t, "uuid-1234", resp.AccountUUID)
}

func Test_MessageHandler_rejects_non_post_requests(t *testing.T) {
	handler := newTestHandler(&staticIdentifier{})
	req := httptest.NewRequest(http.MethodGet, "/message", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
