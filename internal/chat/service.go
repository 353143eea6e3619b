// Package chat orchestrates the visitor message pipeline: conversation
// lookup, reply generation, escalation analysis, and operator alerting.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcveslino/portfolio-assistant/internal/database"
	"github.com/marcveslino/portfolio-assistant/internal/domain"
	"github.com/marcveslino/portfolio-assistant/internal/escalation"
	"github.com/marcveslino/portfolio-assistant/internal/logging"
	"github.com/marcveslino/portfolio-assistant/internal/responder"
	"github.com/marcveslino/portfolio-assistant/internal/telemetry"
)

// humanActiveAck is returned to the visitor while an operator has the
// conversation; the real answer arrives through polling.
const humanActiveAck = "Marc will respond to you shortly..."

// ConversationStore is the conversation persistence the service needs.
type ConversationStore interface {
	GetOpenByVisitor(ctx context.Context, visitorID string) (*domain.Conversation, error)
	Create(ctx context.Context, visitorID, visitorName string, visitorEmail *string) (*domain.Conversation, error)
	Update(ctx context.Context, id string, patch domain.ConversationPatch) error
}

// MessageStore is the transcript persistence the service needs.
type MessageStore interface {
	Insert(ctx context.Context, msg *domain.Message) error
	ListRecent(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
}

// Responder generates assistant replies.
type Responder interface {
	Respond(ctx context.Context, message string, history []domain.ChatTurn, profile *domain.VisitorProfile) responder.Reply
}

// Notifier delivers operator alerts and relays.
type Notifier interface {
	Notify(ctx context.Context, summary *domain.ConversationSummary)
	NotifyVisitorMessage(ctx context.Context, conversationID, visitorName, message string)
}

// Request is one visitor message.
type Request struct {
	VisitorID    string
	VisitorName  string
	VisitorEmail string
	Message      string
}

// Result is what the chat endpoint returns to the widget.
type Result struct {
	ConversationID string
	Response       string
	Confidence     float64
	Escalated      bool
	HumanActive    bool
}

// Service runs the visitor message pipeline.
type Service struct {
	conversations ConversationStore
	messages      MessageStore
	responder     Responder
	notifier      Notifier
	telemetry     *telemetry.Provider
	historyLimit  int
	logger        logging.Logger
}

// NewService wires the chat pipeline. telemetry may be nil in tests.
func NewService(
	conversations ConversationStore,
	messages MessageStore,
	resp Responder,
	notif Notifier,
	tel *telemetry.Provider,
	historyLimit int,
	logger logging.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		responder:     resp,
		notifier:      notif,
		telemetry:     tel,
		historyLimit:  historyLimit,
		logger:        logger,
	}
}

// HandleMessage processes one visitor message end to end.
func (s *Service) HandleMessage(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	conv, err := s.getOrCreateConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	// An operator owns the conversation: persist and relay the message,
	// skip the assistant entirely.
	if conv.Status == domain.StatusHumanActive {
		if insertErr := s.insertUserMessage(ctx, conv.ID, req.Message); insertErr != nil {
			return nil, insertErr
		}
		s.notifier.NotifyVisitorMessage(ctx, conv.ID, req.VisitorName, req.Message)
		if s.telemetry != nil {
			s.telemetry.RecordRelayedToHuman()
			s.telemetry.RecordChatMessage(conv.Status, time.Since(start))
		}
		return &Result{
			ConversationID: conv.ID,
			Response:       humanActiveAck,
			HumanActive:    true,
		}, nil
	}

	msgCount := conv.MessageCount + 1
	if updErr := s.conversations.Update(ctx, conv.ID, domain.ConversationPatch{MessageCount: &msgCount}); updErr != nil {
		return nil, updErr
	}

	if err = s.insertUserMessage(ctx, conv.ID, req.Message); err != nil {
		return nil, err
	}

	// The context window now includes the message just stored.
	window, err := s.messages.ListRecent(ctx, conv.ID, s.historyLimit)
	if err != nil {
		return nil, err
	}

	profile := &domain.VisitorProfile{
		Name:           req.VisitorName,
		Email:          req.VisitorEmail,
		PreviousTopics: deriveTopics(window),
	}
	reply := s.responder.Respond(ctx, req.Message, toChatTurns(window), profile)
	if reply.FromFallback && s.telemetry != nil {
		s.telemetry.RecordFallbackReply()
	}

	confidence := escalation.Score(req.Message, reply.Text)

	verdict := escalation.Analyze(&domain.ConversationContext{
		MessageCount:   msgCount,
		RecentMessages: window,
		UserMessage:    req.Message,
		AIResponse:     reply.Text,
	})

	escalated := verdict.ShouldEscalate
	aiMsg := &domain.Message{
		ConversationID:      conv.ID,
		SenderType:          domain.SenderAI,
		Body:                reply.Text,
		AIConfidence:        &confidence,
		EscalationTriggered: &escalated,
	}
	if err = s.messages.Insert(ctx, aiMsg); err != nil {
		return nil, err
	}

	patch := domain.ConversationPatch{}
	avg := averageConfidence(window, confidence)
	patch.AIConfidenceAvg = &avg

	if verdict.ShouldEscalate {
		status := domain.StatusWaitingHuman
		reason := strings.Join(verdict.Reasons, "; ")
		flag := true
		patch.Status = &status
		patch.Escalated = &flag
		patch.EscalationReason = &reason
	}

	if err = s.conversations.Update(ctx, conv.ID, patch); err != nil {
		return nil, err
	}

	if verdict.ShouldEscalate {
		if s.telemetry != nil {
			s.telemetry.RecordEscalation(verdict.Urgency)
		}
		s.logger.Info("conversation escalated",
			"conversation_id", conv.ID,
			"urgency", verdict.Urgency,
			"reasons", verdict.Reasons)
	}

	s.notifier.Notify(ctx, &domain.ConversationSummary{
		ConversationID: conv.ID,
		VisitorName:    displayName(req.VisitorName),
		VisitorEmail:   req.VisitorEmail,
		UserMessage:    req.Message,
		AIResponse:     reply.Text,
		MessageCount:   msgCount,
		History:        window,
		Verdict:        verdict,
	})

	if s.telemetry != nil {
		s.telemetry.RecordChatMessage(conv.Status, time.Since(start))
	}

	return &Result{
		ConversationID: conv.ID,
		Response:       reply.Text,
		Confidence:     confidence,
		Escalated:      verdict.ShouldEscalate,
	}, nil
}

func (s *Service) getOrCreateConversation(ctx context.Context, req *Request) (*domain.Conversation, error) {
	conv, err := s.conversations.GetOpenByVisitor(ctx, req.VisitorID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, database.ErrConversationNotFound) {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}

	var email *string
	if req.VisitorEmail != "" {
		email = &req.VisitorEmail
	}
	conv, err = s.conversations.Create(ctx, req.VisitorID, req.VisitorName, email)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) insertUserMessage(ctx context.Context, conversationID, body string) error {
	return s.messages.Insert(ctx, &domain.Message{
		ConversationID: conversationID,
		SenderType:     domain.SenderUser,
		Body:           body,
	})
}

// toChatTurns maps stored messages onto responder turns. Operator messages
// count as assistant turns; the model should treat them as its own side of
// the conversation.
func toChatTurns(messages []domain.Message) []domain.ChatTurn {
	turns := make([]domain.ChatTurn, 0, len(messages))
	for i := range messages {
		turns = append(turns, domain.ChatTurn{
			Role:    messages[i].SenderType,
			Content: messages[i].Body,
		})
	}
	return turns
}

// averageConfidence folds the new score into the mean of the window's
// assistant confidences.
func averageConfidence(window []domain.Message, current float64) float64 {
	sum := current
	count := 1
	for i := range window {
		if window[i].SenderType == domain.SenderAI && window[i].AIConfidence != nil {
			sum += *window[i].AIConfidence
			count++
		}
	}
	return sum / float64(count)
}

// deriveTopics tags the visitor's prior messages with coarse topics so the
// model can keep continuity across the window.
func deriveTopics(window []domain.Message) []string {
	seen := map[string]bool{}
	topics := []string{}
	add := func(topic string) {
		if !seen[topic] {
			seen[topic] = true
			topics = append(topics, topic)
		}
	}
	for i := range window {
		if window[i].SenderType != domain.SenderUser {
			continue
		}
		lower := strings.ToLower(window[i].Body)
		switch {
		case strings.Contains(lower, "project"):
			add("projects")
		case strings.Contains(lower, "skill"):
			add("skills")
		case strings.Contains(lower, "hire") || strings.Contains(lower, "work"):
			add("hiring")
		}
	}
	return topics
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Anonymous"
	}
	return name
}
