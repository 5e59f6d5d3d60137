package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parley/errors"
	"parley/models"
)

func Test_ValidateInbound_rejects_payload_without_text(t *testing.T) {
	_, err := models.ValidateInbound(map[string]interface{}{"session_id": "s2"})

	assert.ErrorIs(t, err, errors.ErrMissingText)
}

func Test_ValidateInbound_rejects_empty_text(t *testing.T) {
	_, err := models.ValidateInbound(map[string]interface{}{"text": ""})

	assert.ErrorIs(t, err, errors.ErrMissingText)
}

func Test_ValidateInbound_passes_optional_ids_through(t *testing.T) {
	msg, err := models.ValidateInbound(map[string]interface{}{
		"text":       "hello",
		"session_id": "s1",
		"user_id":    "u1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "s1", msg.SessionID)
	assert.Equal(t, "u1", msg.UserID)
}

func Test_ValidateInbound_defaults_absent_ids_to_empty(t *testing.T) {
	msg, err := models.ValidateInbound(map[string]interface{}{"text": "hello"})

	assert.NoError(t, err)
	assert.Empty(t, msg.SessionID)
	assert.Empty(t, msg.UserID)
}

func Test_ValidateInbound_ignores_unknown_keys_and_non_string_optionals(t *testing.T) {
	msg, err := models.ValidateInbound(map[string]interface{}{
		"text":       "hello",
		"session_id": 42,
		"extra":      true,
	})

	assert.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Empty(t, msg.SessionID)
}
