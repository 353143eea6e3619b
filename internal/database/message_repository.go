package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/marcveslino/portfolio-assistant/internal/domain"
)

// MessageRepository handles database operations for conversation messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `
	id, conversation_id, sender_type, message, ai_confidence,
	escalation_triggered, created_at
`

// Insert appends a message to a conversation's transcript. The ID and
// creation timestamp are filled in on the passed message.
func (r *MessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (
			id, conversation_id, sender_type, message, ai_confidence,
			escalation_triggered
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		uuid.NewString(),
		msg.ConversationID,
		msg.SenderType,
		msg.Body,
		msg.AIConfidence,
		msg.EscalationTriggered,
	).Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// ListRecent retrieves the last limit messages of a conversation in
// chronological order.
func (r *MessageRepository) ListRecent(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	query := `
		SELECT * FROM (
			SELECT ` + messageColumns + `
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`

	var messages []domain.Message
	err := r.db.SelectContext(ctx, &messages, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}

	return messages, nil
}

// ListAll retrieves the full transcript of a conversation in chronological
// order.
func (r *MessageRepository) ListAll(ctx context.Context, conversationID string) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	var messages []domain.Message
	err := r.db.SelectContext(ctx, &messages, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// ListHumanSince retrieves operator messages created strictly after the
// cursor, oldest first. This backs the client polling endpoint; using a
// strict comparison keeps redelivery out as long as the client advances its
// cursor to the newest timestamp it has seen.
func (r *MessageRepository) ListHumanSince(ctx context.Context, conversationID string, since time.Time) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
		  AND sender_type = $2
		  AND created_at > $3
		ORDER BY created_at ASC
	`

	var messages []domain.Message
	err := r.db.SelectContext(ctx, &messages, query, conversationID, domain.SenderHuman, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list operator messages: %w", err)
	}

	return messages, nil
}
