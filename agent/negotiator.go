package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"parley/models"
	"parley/session"
)

// NegotiatorClient is the shipped DomainAgent: it calls the negotiation
// service over HTTP, feeding it the recent conversation history of the
// session. History stays in this adapter; the orchestrator core never
// retains messages.
type NegotiatorClient struct {
	log        *slog.Logger
	baseURL    string
	httpClient *http.Client
	history    session.History
}

type negotiationRequest struct {
	AccountUUID string                       `json:"account_uuid"`
	SessionID   string                       `json:"session_id"`
	Message     string                       `json:"message"`
	History     []models.ConversationMessage `json:"conversation_history"`
}

type negotiationResponse struct {
	Response  string   `json:"response"`
	Sources   []string `json:"sources"`
	ModelUsed string   `json:"model_used"`
}

func NewNegotiatorClient(log *slog.Logger, baseURL string, timeout time.Duration, history session.History) *NegotiatorClient {
	return &NegotiatorClient{
		log:        log,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		history:    history,
	}
}

func (c *NegotiatorClient) Handle(ctx context.Context, msg models.InboundMessage, accountUUID string) (Reply, error) {
	var history []models.ConversationMessage
	if msg.SessionID != "" {
		loaded, err := c.history.LoadHistory(ctx, msg.SessionID)
		if err != nil {
			c.log.Warn("failed to load history, continuing without", "session_id", msg.SessionID, "error", err)
		} else {
			history = loaded
		}
	}

	resp, err := c.negotiate(ctx, negotiationRequest{
		AccountUUID: accountUUID,
		SessionID:   msg.SessionID,
		Message:     msg.Text,
		History:     history,
	})
	if err != nil {
		return Reply{}, err
	}

	if msg.SessionID != "" {
		if err := c.history.AppendExchange(ctx, msg.SessionID, msg.Text, resp.Response); err != nil {
			c.log.Warn("failed to save history", "session_id", msg.SessionID, "error", err)
		}
	}

	return Reply{
		Text:      resp.Response,
		Sources:   resp.Sources,
		ModelUsed: resp.ModelUsed,
	}, nil
}

func (c *NegotiatorClient) negotiate(ctx context.Context, req negotiationRequest) (*negotiationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/negotiate", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("negotiator returned %d: %s", resp.StatusCode, string(respBody))
	}

	var negResp negotiationResponse
	if err := json.Unmarshal(respBody, &negResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &negResp, nil
}
