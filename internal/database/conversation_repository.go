package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/marcveslino/portfolio-assistant/internal/domain"
)

// ErrConversationNotFound is returned when a conversation lookup matches no row.
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository handles database operations for conversations.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new conversation repository.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `
	id, visitor_id, visitor_name, visitor_email, status, message_count,
	escalated, escalation_reason, ai_confidence_avg, created_at, updated_at
`

// Create inserts a new conversation in the active status.
func (r *ConversationRepository) Create(ctx context.Context, visitorID, visitorName string, visitorEmail *string) (*domain.Conversation, error) {
	query := `
		INSERT INTO conversations (
			id, visitor_id, visitor_name, visitor_email, status,
			message_count, escalated, ai_confidence_avg
		)
		VALUES ($1, $2, $3, $4, $5, 0, FALSE, 0)
		RETURNING ` + conversationColumns

	var conv domain.Conversation
	err := r.db.GetContext(ctx, &conv, query,
		uuid.NewString(), visitorID, visitorName, visitorEmail, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return &conv, nil
}

// GetByID retrieves a conversation by its ID.
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	var conv domain.Conversation
	err := r.db.GetContext(ctx, &conv, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &conv, nil
}

// GetOpenByVisitor retrieves the visitor's most recent non-closed
// conversation, or ErrConversationNotFound when every conversation is closed.
func (r *ConversationRepository) GetOpenByVisitor(ctx context.Context, visitorID string) (*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE visitor_id = $1 AND status = ANY($2)
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var conv domain.Conversation
	err := r.db.GetContext(ctx, &conv, query, visitorID, pq.Array(domain.OpenStatuses))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get open conversation: %w", err)
	}

	return &conv, nil
}

// MostRecentEscalated retrieves the newest conversation that is waiting for
// or being handled by an operator. Used as the last-resort target for
// operator replies that carry no conversation reference.
func (r *ConversationRepository) MostRecentEscalated(ctx context.Context) (*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE status = ANY($1)
		ORDER BY updated_at DESC
		LIMIT 1
	`

	statuses := []string{domain.StatusWaitingHuman, domain.StatusHumanActive}

	var conv domain.Conversation
	err := r.db.GetContext(ctx, &conv, query, pq.Array(statuses))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get escalated conversation: %w", err)
	}

	return &conv, nil
}

// Update applies the non-nil fields of the patch and bumps updated_at.
func (r *ConversationRepository) Update(ctx context.Context, id string, patch domain.ConversationPatch) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.MessageCount != nil {
		add("message_count", *patch.MessageCount)
	}
	if patch.Escalated != nil {
		add("escalated", *patch.Escalated)
	}
	if patch.EscalationReason != nil {
		add("escalation_reason", *patch.EscalationReason)
	}
	if patch.AIConfidenceAvg != nil {
		add("ai_confidence_avg", *patch.AIConfidenceAvg)
	}

	query := fmt.Sprintf("UPDATE conversations SET %s WHERE id = $%d",
		strings.Join(sets, ", "), n)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrConversationNotFound
	}

	return nil
}
