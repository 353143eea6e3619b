package api

import (
	"time"

	"github.com/marcveslino/portfolio-assistant/internal/domain"
)

// ChatRequest is one visitor message from the widget. Field names mirror
// what the widget sends.
type ChatRequest struct {
	Message   string `json:"message"   binding:"required"`
	UserID    string `json:"userId"    binding:"required"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail" binding:"omitempty,email"`
}

// ChatResponse is the widget-facing reply envelope.
type ChatResponse struct {
	Success        bool    `json:"success"`
	Response       string  `json:"response"`
	ConversationID string  `json:"conversationId"`
	Confidence     float64 `json:"confidence,omitempty"`
	Escalated      bool    `json:"escalated,omitempty"`
	HumanActive    bool    `json:"humanActive,omitempty"`
}

// PollRequest asks for operator messages newer than the client's cursor.
type PollRequest struct {
	UserID          string     `json:"userId" binding:"required"`
	LastMessageTime *time.Time `json:"lastMessageTime"`
}

// PollMessage is one delivered operator message.
type PollMessage struct {
	SenderType string    `json:"sender_type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// PollResponse carries new operator messages and the conversation status so
// the widget can render the takeover notice.
type PollResponse struct {
	NewMessages        []PollMessage `json:"newMessages"`
	ConversationStatus string        `json:"conversationStatus,omitempty"`
}

func toPollMessages(messages []domain.Message) []PollMessage {
	out := make([]PollMessage, 0, len(messages))
	for i := range messages {
		out = append(out, PollMessage{
			SenderType: messages[i].SenderType,
			Message:    messages[i].Body,
			CreatedAt:  messages[i].CreatedAt,
		})
	}
	return out
}
