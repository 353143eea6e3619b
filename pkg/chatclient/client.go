// Package chatclient is a small client for the assistant chat API, usable
// from other Go services and integration tests. Its poller mirrors the web
// widget: a fixed interval, a strictly advancing cursor, and a one-time
// notice when a human takes over.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// SendRequest is one visitor message.
type SendRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// SendResponse is the assistant's reply envelope.
type SendResponse struct {
	Success        bool    `json:"success"`
	Response       string  `json:"response"`
	ConversationID string  `json:"conversationId"`
	Confidence     float64 `json:"confidence"`
	Escalated      bool    `json:"escalated"`
	HumanActive    bool    `json:"humanActive"`
}

// pollRequest asks for operator messages newer than the cursor.
type pollRequest struct {
	UserID          string     `json:"userId"`
	LastMessageTime *time.Time `json:"lastMessageTime,omitempty"`
}

// PolledMessage is one operator message delivered through polling.
type PolledMessage struct {
	SenderType string    `json:"sender_type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// PollResponse carries new operator messages and the conversation status.
type PollResponse struct {
	NewMessages        []PolledMessage `json:"newMessages"`
	ConversationStatus string          `json:"conversationStatus"`
}

// Client talks to the assistant chat API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given API base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Send delivers one visitor message and returns the assistant's reply.
func (c *Client) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	var resp SendResponse
	if err := c.post(ctx, "/api/v1/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Poll fetches operator messages created strictly after the cursor. A nil
// cursor returns everything.
func (c *Client) Poll(ctx context.Context, userID string, after *time.Time) (*PollResponse, error) {
	var resp PollResponse
	if err := c.post(ctx, "/api/v1/chat/poll", &pollRequest{UserID: userID, LastMessageTime: after}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload, respPtr any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat api returned %d", resp.StatusCode)
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(respPtr); decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}
