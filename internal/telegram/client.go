package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/marcveslino/portfolio-assistant/internal/config"
)

const defaultTimeout = 10 * time.Second

// ParseModeMarkdown is the parse_mode used for all operator-facing text.
const ParseModeMarkdown = "Markdown"

// Client talks to the Telegram Bot API for a single bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a Client from the Telegram configuration.
func NewClient(cfg config.TelegramConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.BotToken,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Configured reports whether a bot token is present. An unconfigured client
// lets the rest of the service run with operator alerts disabled.
func (c *Client) Configured() bool {
	return c.token != ""
}

// SendMessage sends a message, optionally with an inline keyboard or as a
// threaded reply.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) error {
	return c.call(ctx, "sendMessage", req)
}

// EditMessageText rewrites the text (and keyboard) of a previously sent
// message. Used to swap alert views in place instead of flooding the chat.
func (c *Client) EditMessageText(ctx context.Context, req *EditMessageTextRequest) error {
	return c.call(ctx, "editMessageText", req)
}

// EditMessageReplyMarkup swaps only the inline keyboard of a sent message.
func (c *Client) EditMessageReplyMarkup(ctx context.Context, req *EditMessageReplyMarkupRequest) error {
	return c.call(ctx, "editMessageReplyMarkup", req)
}

// AnswerCallbackQuery acknowledges a button press so the Telegram client
// stops showing its loading spinner. Every callback must be answered even
// when the action itself fails.
func (c *Client) AnswerCallbackQuery(ctx context.Context, req *AnswerCallbackQueryRequest) error {
	return c.call(ctx, "answerCallbackQuery", req)
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp); decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram %s failed: %s", method, apiResp.Description)
	}

	return nil
}
