package responder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/marcveslino/portfolio-assistant/internal/config"
	"github.com/marcveslino/portfolio-assistant/internal/domain"
	"github.com/marcveslino/portfolio-assistant/internal/logging"
)

// Responder produces the assistant reply for a visitor message. The
// generative path is tried first; any failure degrades to the deterministic
// fallback table, so Respond never returns empty text and never errors.
type Responder struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  logging.Logger
}

// New builds a Responder from the AI configuration. An empty API key is
// allowed; the upstream may permit unauthenticated access, and the fallback
// covers the case where it does not.
func New(cfg config.AIConfig, logger logging.Logger) *Responder {
	options := []option.RequestOption{option.WithBaseURL(cfg.BaseURL)}
	if cfg.APIKey != "" {
		options = append(options, option.WithAPIKey(cfg.APIKey))
	}

	client := openai.NewClient(options...)

	return &Responder{
		client:  &client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Reply holds the generated text and whether the deterministic fallback
// produced it.
type Reply struct {
	Text         string
	FromFallback bool
}

// Respond answers the visitor message given the recent conversation turns
// and what is known about the visitor.
func (r *Responder) Respond(ctx context.Context, message string, history []domain.ChatTurn, profile *domain.VisitorProfile) Reply {
	// Availability questions get the canned answer before the model sees
	// them; the model has a habit of answering them with a project listing.
	if text, ok := AvailabilityOverride(message); ok {
		return Reply{Text: text, FromFallback: true}
	}

	text, err := r.generate(ctx, message, history, profile)
	if err != nil {
		r.logger.Warn("generative reply failed, using fallback", "error", err)
		return Reply{Text: Fallback(message, history), FromFallback: true}
	}
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("generative reply was empty, using fallback")
		return Reply{Text: Fallback(message, history), FromFallback: true}
	}
	return Reply{Text: text}
}

func (r *Responder) generate(ctx context.Context, message string, history []domain.ChatTurn, profile *domain.VisitorProfile) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+3)
	messages = append(messages, openai.SystemMessage(systemInstruction))
	if note := profileNote(profile); note != "" {
		messages = append(messages, openai.SystemMessage(note))
	}
	for _, turn := range history {
		switch turn.Role {
		case domain.SenderAI, domain.SenderHuman:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    r.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// profileNote summarizes the visitor for the model: who is asking and which
// topics already came up.
func profileNote(profile *domain.VisitorProfile) string {
	if profile == nil {
		return ""
	}
	parts := []string{}
	if profile.Name != "" {
		parts = append(parts, "The visitor's name is "+profile.Name+".")
	}
	if len(profile.PreviousTopics) > 0 {
		parts = append(parts, "Topics already discussed: "+strings.Join(profile.PreviousTopics, ", ")+".")
	}
	return strings.Join(parts, " ")
}
