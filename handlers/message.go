package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	parleyerrors "parley/errors"
	"parley/models"
	"parley/router"
)

// MessageHandler exposes the orchestration core over plain HTTP for
// non-streaming callers: POST a payload, get the response for that turn.
type MessageHandler struct {
	log    *slog.Logger
	router *router.Router
}

func NewMessageHandler(log *slog.Logger, r *router.Router) *MessageHandler {
	return &MessageHandler{log: log, router: r}
}

func (h *MessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Response{
			Type: models.ResponseError,
			Text: "invalid JSON body",
		})
		return
	}

	resp, err := h.router.ProcessMessage(r.Context(), payload)
	switch {
	case errors.Is(err, parleyerrors.ErrMissingText):
		writeJSON(w, http.StatusBadRequest, models.Response{
			Type: models.ResponseError,
			Text: err.Error(),
		})
	case err != nil:
		h.log.Error("failed to process message", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.Response{
			Type: models.ResponseError,
			Text: "internal error",
		})
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
