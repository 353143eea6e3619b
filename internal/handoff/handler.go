// Package handoff implements the operator side of the human takeover
// protocol: inline keyboard actions and free-text replies arriving through
// the bot webhook.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/marcveslino/portfolio-assistant/internal/database"
	"github.com/marcveslino/portfolio-assistant/internal/domain"
	"github.com/marcveslino/portfolio-assistant/internal/logging"
	"github.com/marcveslino/portfolio-assistant/internal/notifier"
	"github.com/marcveslino/portfolio-assistant/internal/telegram"
	"github.com/marcveslino/portfolio-assistant/internal/telemetry"
)

// Telegram message length ceiling; history dumps are chunked under it.
const messageChunkSize = 4000

// Reply recovery strategies, recorded in telemetry.
const (
	recoveryReplyTag = "reply_tag"
	recoveryAlertTag = "alert_tag"
	recoveryRecent   = "recent"
	recoveryFailed   = "failed"
)

var (
	// "Conversation ID: `xxx`" from the takeover instruction message.
	replyTagPattern = regexp.MustCompile("Conversation ID: `([^`]+)`")
	// "🆔 Conversation: `xxx`" from escalation alerts and visitor relays.
	alertTagPattern = regexp.MustCompile("🆔 Conversation: `([^`]+)`")
)

// ConversationStore is the conversation persistence the handler needs.
type ConversationStore interface {
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	Update(ctx context.Context, id string, patch domain.ConversationPatch) error
	MostRecentEscalated(ctx context.Context) (*domain.Conversation, error)
}

// MessageStore is the transcript persistence the handler needs.
type MessageStore interface {
	Insert(ctx context.Context, msg *domain.Message) error
	ListAll(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// Bot is the subset of the Telegram client the handler needs.
type Bot interface {
	SendMessage(ctx context.Context, req *telegram.SendMessageRequest) error
	EditMessageText(ctx context.Context, req *telegram.EditMessageTextRequest) error
	EditMessageReplyMarkup(ctx context.Context, req *telegram.EditMessageReplyMarkupRequest) error
	AnswerCallbackQuery(ctx context.Context, req *telegram.AnswerCallbackQueryRequest) error
}

// Handler processes bot webhook updates.
type Handler struct {
	conversations ConversationStore
	messages      MessageStore
	bot           Bot
	telemetry     *telemetry.Provider
	logger        logging.Logger
}

// NewHandler wires the operator protocol. telemetry may be nil in tests.
func NewHandler(
	conversations ConversationStore,
	messages MessageStore,
	bot Bot,
	tel *telemetry.Provider,
	logger logging.Logger,
) *Handler {
	return &Handler{
		conversations: conversations,
		messages:      messages,
		bot:           bot,
		telemetry:     tel,
		logger:        logger,
	}
}

// HandleUpdate dispatches one webhook update. Errors are logged and
// swallowed; the webhook endpoint always acknowledges so Telegram does not
// retry the same update indefinitely.
func (h *Handler) HandleUpdate(ctx context.Context, update *telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.recordUpdate("callback")
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.ReplyToMessage != nil:
		h.recordUpdate("message")
		h.handleDirectReply(ctx, update.Message)
	default:
		h.recordUpdate("other")
	}
}

func (h *Handler) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	// Always answer, even when the action fails; otherwise the operator's
	// client spins forever.
	defer func() {
		answerErr := h.bot.AnswerCallbackQuery(ctx, &telegram.AnswerCallbackQueryRequest{
			CallbackQueryID: query.ID,
			Text:            "✅ Action processed",
		})
		if answerErr != nil {
			h.logger.Warn("failed to answer callback query", "error", answerErr)
		}
	}()

	if query.Message == nil {
		h.logger.Warn("callback query without message", "data", query.Data)
		return
	}

	action, conversationID, templateKind := parseCallbackData(query.Data)
	chatID := strconv.FormatInt(query.Message.Chat.ID, 10)
	messageID := query.Message.MessageID

	if action != "" && h.telemetry != nil {
		h.telemetry.RecordOperatorAction(action)
	}

	var err error
	switch action {
	case "takeover":
		err = h.handleTakeover(ctx, conversationID, chatID, messageID)
	case "reply":
		err = h.handleQuickReply(ctx, conversationID, chatID, messageID)
	case "resolve":
		err = h.handleResolve(ctx, conversationID, chatID, messageID)
	case "history":
		err = h.handleViewHistory(ctx, conversationID, chatID)
	case "template":
		err = h.handleTemplate(ctx, conversationID, templateKind, chatID, messageID)
	case "back":
		err = h.bot.EditMessageReplyMarkup(ctx, &telegram.EditMessageReplyMarkupRequest{
			ChatID:      chatID,
			MessageID:   messageID,
			ReplyMarkup: notifier.AlertKeyboard(conversationID),
		})
	default:
		h.logger.Warn("unknown callback action", "data", query.Data)
	}

	if err != nil {
		h.logger.Error("callback action failed",
			"action", action, "conversation_id", conversationID, "error", err)
	}
}

// handleTakeover moves the conversation to human_active and posts the reply
// instructions carrying the conversation tag. Closed conversations are
// terminal and refuse the takeover.
func (h *Handler) handleTakeover(ctx context.Context, conversationID, chatID string, messageID int64) error {
	conv, err := h.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return h.sendActionFailure(ctx, chatID, "❌ Conversation not found.")
	}
	if conv.IsClosed() {
		return h.sendActionFailure(ctx, chatID,
			"❌ This conversation is already closed and cannot be taken over.")
	}

	status := domain.StatusHumanActive
	if err = h.conversations.Update(ctx, conversationID, domain.ConversationPatch{Status: &status}); err != nil {
		return err
	}

	if err = h.bot.EditMessageText(ctx, &telegram.EditMessageTextRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      "✅ *You took over this conversation*\n\nThe user will now receive your direct responses.",
		ParseMode: telegram.ParseModeMarkdown,
	}); err != nil {
		return err
	}

	instructions := fmt.Sprintf("📝 *How to respond:*\n\n"+
		"Reply to this message with your response, and it will be sent to the user.\n\n"+
		"Conversation ID: `%s`", conversationID)

	return h.bot.SendMessage(ctx, &telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      instructions,
		ParseMode: telegram.ParseModeMarkdown,
	})
}

// handleQuickReply swaps the alert keyboard for the template picker.
func (h *Handler) handleQuickReply(ctx context.Context, conversationID, chatID string, messageID int64) error {
	keyboard := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "💼 Business Template", CallbackData: "template_business_" + conversationID},
				{Text: "🤝 Collaboration Template", CallbackData: "template_collab_" + conversationID},
			},
			{
				{Text: "📅 Availability Template", CallbackData: "template_availability_" + conversationID},
				{Text: "🔧 Technical Template", CallbackData: "template_technical_" + conversationID},
			},
			{
				{Text: "👋 General Template", CallbackData: "template_general_" + conversationID},
			},
			{
				{Text: "« Back", CallbackData: "back_" + conversationID},
			},
		},
	}

	return h.bot.EditMessageReplyMarkup(ctx, &telegram.EditMessageReplyMarkupRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: keyboard,
	})
}

// handleResolve closes the conversation and clears the escalation flag.
func (h *Handler) handleResolve(ctx context.Context, conversationID, chatID string, messageID int64) error {
	status := domain.StatusClosed
	escalated := false
	err := h.conversations.Update(ctx, conversationID, domain.ConversationPatch{
		Status:    &status,
		Escalated: &escalated,
	})
	if err != nil {
		if errors.Is(err, database.ErrConversationNotFound) {
			return h.sendActionFailure(ctx, chatID, "❌ Conversation not found.")
		}
		return err
	}

	return h.bot.EditMessageText(ctx, &telegram.EditMessageTextRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      "✅ *Conversation marked as resolved*\n\nThe conversation has been closed.",
		ParseMode: telegram.ParseModeMarkdown,
	})
}

// handleViewHistory dumps the full transcript into the operator chat,
// chunked under the Telegram message size limit.
func (h *Handler) handleViewHistory(ctx context.Context, conversationID, chatID string) error {
	messages, err := h.messages.ListAll(ctx, conversationID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return h.bot.SendMessage(ctx, &telegram.SendMessageRequest{
			ChatID: chatID,
			Text:   "❌ No conversation history found.",
		})
	}

	for _, chunk := range chunkText(formatHistory(messages), messageChunkSize) {
		if err = h.bot.SendMessage(ctx, &telegram.SendMessageRequest{
			ChatID:    chatID,
			Text:      chunk,
			ParseMode: telegram.ParseModeMarkdown,
		}); err != nil {
			return err
		}
	}
	return nil
}

// handleTemplate posts a ready-to-edit template response into the operator
// chat, personalized with the visitor's name.
func (h *Handler) handleTemplate(ctx context.Context, conversationID, kind, chatID string, messageID int64) error {
	visitorName := "there"
	if conv, err := h.conversations.GetByID(ctx, conversationID); err == nil && conv.VisitorName != "" {
		visitorName = conv.VisitorName
	}

	text := fmt.Sprintf("📝 *Template Response:*\n\n%s\n\n_Edit this message and send it, or copy and customize it._",
		notifier.RenderTemplate(kind, visitorName))

	if err := h.bot.SendMessage(ctx, &telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: telegram.ParseModeMarkdown,
	}); err != nil {
		return err
	}

	return h.bot.EditMessageText(ctx, &telegram.EditMessageTextRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      "✅ Template sent! Edit and send your response.",
		ParseMode: telegram.ParseModeMarkdown,
	})
}

// handleDirectReply turns a free-text Telegram reply into an operator
// message for the visitor. The target conversation is recovered from the
// replied-to message text, falling back to the most recent escalated
// conversation.
func (h *Handler) handleDirectReply(ctx context.Context, msg *telegram.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	conversationID, strategy := h.recoverConversationID(ctx, msg.ReplyToMessage.Text)
	if h.telemetry != nil {
		h.telemetry.RecordRecovery(strategy)
	}
	if conversationID == "" {
		h.sendReplyFailure(ctx, chatID, msg.MessageID,
			"❌ Could not find conversation. Please click \"Take Over\" button first, then reply to the instruction message.")
		return
	}

	conv, err := h.conversations.GetByID(ctx, conversationID)
	if err != nil || conv.IsClosed() {
		h.sendReplyFailure(ctx, chatID, msg.MessageID,
			"❌ Conversation not found or has been closed.")
		return
	}

	if err = h.messages.Insert(ctx, &domain.Message{
		ConversationID: conversationID,
		SenderType:     domain.SenderHuman,
		Body:           msg.Text,
	}); err != nil {
		h.logger.Error("failed to store operator reply",
			"conversation_id", conversationID, "error", err)
		h.sendReplyFailure(ctx, chatID, msg.MessageID,
			"❌ Failed to send message. Please try again.")
		return
	}

	// Any operator reply claims the conversation.
	status := domain.StatusHumanActive
	if err = h.conversations.Update(ctx, conversationID, domain.ConversationPatch{Status: &status}); err != nil {
		h.logger.Error("failed to mark conversation human-active",
			"conversation_id", conversationID, "error", err)
	}

	visitorName := conv.VisitorName
	if visitorName == "" {
		visitorName = "user"
	}
	confirmation := fmt.Sprintf("✅ *Message sent to %s!*\n\n%q", visitorName, msg.Text)
	if sendErr := h.bot.SendMessage(ctx, &telegram.SendMessageRequest{
		ChatID:           chatID,
		Text:             confirmation,
		ParseMode:        telegram.ParseModeMarkdown,
		ReplyToMessageID: msg.MessageID,
	}); sendErr != nil {
		h.logger.Warn("failed to confirm operator reply", "error", sendErr)
	}
}

// recoverConversationID resolves which conversation a free-text reply
// belongs to. Strategies in order: the takeover instruction tag, the alert
// tag, then the most recently updated escalated conversation.
func (h *Handler) recoverConversationID(ctx context.Context, repliedText string) (string, string) {
	if m := replyTagPattern.FindStringSubmatch(repliedText); m != nil {
		return m[1], recoveryReplyTag
	}
	if m := alertTagPattern.FindStringSubmatch(repliedText); m != nil {
		return m[1], recoveryAlertTag
	}

	conv, err := h.conversations.MostRecentEscalated(ctx)
	if err != nil {
		if !errors.Is(err, database.ErrConversationNotFound) {
			h.logger.Error("failed to look up recent escalated conversation", "error", err)
		}
		return "", recoveryFailed
	}
	return conv.ID, recoveryRecent
}

func (h *Handler) recordUpdate(kind string) {
	if h.telemetry != nil {
		h.telemetry.RecordWebhookUpdate(kind)
	}
}

func (h *Handler) sendActionFailure(ctx context.Context, chatID, text string) error {
	return h.bot.SendMessage(ctx, &telegram.SendMessageRequest{ChatID: chatID, Text: text})
}

func (h *Handler) sendReplyFailure(ctx context.Context, chatID string, replyTo int64, text string) {
	err := h.bot.SendMessage(ctx, &telegram.SendMessageRequest{
		ChatID:           chatID,
		Text:             text,
		ReplyToMessageID: replyTo,
	})
	if err != nil {
		h.logger.Warn("failed to send reply failure notice", "error", err)
	}
}

// parseCallbackData splits "action_conversationID" data; template actions
// carry the kind between the action and the conversation ID. Conversation
// IDs may themselves contain underscores.
func parseCallbackData(data string) (action, conversationID, templateKind string) {
	parts := strings.Split(data, "_")
	if len(parts) < 2 {
		return data, "", ""
	}
	action = parts[0]
	if action == "template" {
		if len(parts) < 3 {
			return action, "", ""
		}
		return action, strings.Join(parts[2:], "_"), parts[1]
	}
	return action, strings.Join(parts[1:], "_"), ""
}

func formatHistory(messages []domain.Message) string {
	entries := make([]string, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		emoji := "👨‍💼"
		switch msg.SenderType {
		case domain.SenderUser:
			emoji = "👤"
		case domain.SenderAI:
			emoji = "🤖"
		}
		entries = append(entries, fmt.Sprintf("%s *%s* (%s)\n%s\n",
			emoji, strings.ToUpper(msg.SenderType),
			msg.CreatedAt.Format("2006-01-02 15:04:05"), msg.Body))
	}
	return strings.Join(entries, "\n---\n\n")
}

// chunkText splits s into rune-safe pieces no longer than size bytes.
func chunkText(s string, size int) []string {
	if len(s) <= size {
		return []string{s}
	}
	var chunks []string
	var b strings.Builder
	for _, r := range s {
		if b.Len()+len(string(r)) > size {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
