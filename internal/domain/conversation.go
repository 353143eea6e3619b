// Package domain defines the core types shared across the service.
package domain

import "time"

// Conversation lifecycle statuses. A visitor has at most one conversation
// that is not closed; the status strings are wire-visible through the
// polling API.
const (
	// StatusActive means the AI assistant is handling the conversation.
	StatusActive = "active"
	// StatusWaitingHuman means the conversation was escalated and awaits
	// an operator.
	StatusWaitingHuman = "waiting_human"
	// StatusHumanActive means an operator has taken over; the assistant
	// is bypassed entirely.
	StatusHumanActive = "human_active"
	// StatusClosed is terminal. No transitions leave it.
	StatusClosed = "closed"
)

// Message sender kinds.
const (
	SenderUser  = "user"
	SenderAI    = "ai"
	SenderHuman = "human"
)

// OpenStatuses lists the statuses considered "non-closed" when looking up
// a visitor's current conversation.
var OpenStatuses = []string{StatusActive, StatusWaitingHuman, StatusHumanActive}

// Conversation represents a single visitor's chat session.
type Conversation struct {
	ID               string    `db:"id"                json:"id"`
	VisitorID        string    `db:"visitor_id"        json:"visitor_id"`
	VisitorName      string    `db:"visitor_name"      json:"visitor_name"`
	VisitorEmail     *string   `db:"visitor_email"     json:"visitor_email,omitempty"`
	Status           string    `db:"status"            json:"status"`
	MessageCount     int       `db:"message_count"     json:"message_count"`
	Escalated        bool      `db:"escalated"         json:"escalated"`
	EscalationReason *string   `db:"escalation_reason" json:"escalation_reason,omitempty"`
	AIConfidenceAvg  float64   `db:"ai_confidence_avg" json:"ai_confidence_avg"`
	CreatedAt        time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"        json:"updated_at"`
}

// IsClosed reports whether the conversation reached its terminal state.
func (c *Conversation) IsClosed() bool {
	return c.Status == StatusClosed
}

// Message is a single immutable entry in a conversation's transcript.
// Ordering within a conversation is defined solely by CreatedAt.
type Message struct {
	ID             string    `db:"id"              json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderType     string    `db:"sender_type"     json:"sender_type"`
	Body           string    `db:"message"         json:"message"`
	AIConfidence   *float64  `db:"ai_confidence"   json:"ai_confidence,omitempty"`
	// EscalationTriggered is set only on assistant messages whose exchange
	// tripped the escalation analyzer.
	EscalationTriggered *bool     `db:"escalation_triggered" json:"escalation_triggered,omitempty"`
	CreatedAt           time.Time `db:"created_at"           json:"created_at"`
}

// ConversationPatch carries the mutable conversation fields for updates.
// Nil fields are left untouched.
type ConversationPatch struct {
	Status           *string
	MessageCount     *int
	Escalated        *bool
	EscalationReason *string
	AIConfidenceAvg  *float64
}

// VisitorProfile describes what is known about the visitor when generating
// an assistant reply.
type VisitorProfile struct {
	Name           string
	Email          string
	PreviousTopics []string
}

// ChatTurn is one prior exchange entry handed to the AI responder,
// most recent last.
type ChatTurn struct {
	Role    string // one of the sender constants
	Content string
}
