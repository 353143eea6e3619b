package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marcveslino/portfolio-assistant/internal/chat"
	"github.com/marcveslino/portfolio-assistant/internal/database"
	"github.com/marcveslino/portfolio-assistant/internal/domain"
	"github.com/marcveslino/portfolio-assistant/internal/telegram"
	"github.com/marcveslino/portfolio-assistant/internal/telemetry"
)

// ChatService runs the visitor message pipeline.
type ChatService interface {
	HandleMessage(ctx context.Context, req *chat.Request) (*chat.Result, error)
}

// ConversationReader looks up the visitor's open conversation for polling.
type ConversationReader interface {
	GetOpenByVisitor(ctx context.Context, visitorID string) (*domain.Conversation, error)
}

// MessageReader reads operator messages for polling.
type MessageReader interface {
	ListHumanSince(ctx context.Context, conversationID string, since time.Time) ([]domain.Message, error)
}

// UpdateHandler processes bot webhook updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *telegram.Update)
}

// Pinger reports backend reachability for the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Logger defines the logging interface
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Handler handles HTTP requests for the assistant API
type Handler struct {
	chatService   ChatService
	conversations ConversationReader
	messages      MessageReader
	webhook       UpdateHandler
	db            Pinger
	telemetry     *telemetry.Provider
	logger        Logger
}

// NewHandler creates a new API handler. telemetry may be nil in tests.
func NewHandler(
	chatService ChatService,
	conversations ConversationReader,
	messages MessageReader,
	webhook UpdateHandler,
	db Pinger,
	tel *telemetry.Provider,
	logger Logger,
) *Handler {
	return &Handler{
		chatService:   chatService,
		conversations: conversations,
		messages:      messages,
		webhook:       webhook,
		db:            db,
		telemetry:     tel,
		logger:        logger,
	}
}

// Chat handles POST /api/v1/chat
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid chat request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "message and userId are required"})
		return
	}

	result, err := h.chatService.HandleMessage(c.Request.Context(), &chat.Request{
		VisitorID:    req.UserID,
		VisitorName:  req.UserName,
		VisitorEmail: req.UserEmail,
		Message:      req.Message,
	})
	if err != nil {
		h.logger.Error("Chat pipeline failed", "visitor_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Success:        true,
		Response:       result.Response,
		ConversationID: result.ConversationID,
		Confidence:     result.Confidence,
		Escalated:      result.Escalated,
		HumanActive:    result.HumanActive,
	})
}

// Poll handles POST /api/v1/chat/poll
func (h *Handler) Poll(c *gin.Context) {
	var req PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid poll request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	conv, err := h.conversations.GetOpenByVisitor(c.Request.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, database.ErrConversationNotFound) {
			c.JSON(http.StatusOK, PollResponse{NewMessages: []PollMessage{}})
			return
		}
		h.logger.Error("Poll conversation lookup failed", "visitor_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to poll messages"})
		return
	}

	since := time.Time{}
	if req.LastMessageTime != nil {
		since = *req.LastMessageTime
	}

	messages, err := h.messages.ListHumanSince(c.Request.Context(), conv.ID, since)
	if err != nil {
		h.logger.Error("Poll message lookup failed", "conversation_id", conv.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to poll messages"})
		return
	}

	if h.telemetry != nil {
		h.telemetry.RecordPoll(len(messages))
	}

	c.JSON(http.StatusOK, PollResponse{
		NewMessages:        toPollMessages(messages),
		ConversationStatus: conv.Status,
	})
}

// TelegramWebhook handles POST /api/v1/telegram/webhook. It always responds
// 200 ok; Telegram retries non-200 responses and a poison update would wedge
// the whole webhook queue.
func (h *Handler) TelegramWebhook(c *gin.Context) {
	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("Undecodable webhook update", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	h.webhook.HandleUpdate(c.Request.Context(), &update)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadyCheck handles GET /ready; it fails when the database is unreachable.
func (h *Handler) ReadyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("Readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
