// Package notifier formats and delivers operator alerts over Telegram.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcveslino/portfolio-assistant/internal/config"
	"github.com/marcveslino/portfolio-assistant/internal/domain"
	"github.com/marcveslino/portfolio-assistant/internal/logging"
	"github.com/marcveslino/portfolio-assistant/internal/telegram"
	"github.com/marcveslino/portfolio-assistant/internal/telemetry"
)

const (
	aiResponsePreviewLimit = 150
	historyPreviewLimit    = 80
	historyPreviewCount    = 3
)

// Sender is the subset of the Telegram client the notifier needs.
type Sender interface {
	SendMessage(ctx context.Context, req *telegram.SendMessageRequest) error
	Configured() bool
}

// Notifier sends escalation alerts and visitor-message relays to the
// operator chat. Delivery failures are logged, never propagated; a broken
// alert channel must not break the visitor conversation.
type Notifier struct {
	sender    Sender
	chatID    string
	telemetry *telemetry.Provider
	logger    logging.Logger
}

// New creates a Notifier targeting the configured operator chat.
// telemetry may be nil in tests.
func New(sender Sender, cfg config.TelegramConfig, tel *telemetry.Provider, logger logging.Logger) *Notifier {
	return &Notifier{sender: sender, chatID: cfg.ChatID, telemetry: tel, logger: logger}
}

// Notify sends an escalation alert for the exchange. It gates on the verdict
// itself: a non-escalating exchange is a no-op.
func (n *Notifier) Notify(ctx context.Context, summary *domain.ConversationSummary) {
	if !summary.Verdict.ShouldEscalate {
		return
	}
	if !n.sender.Configured() {
		n.logger.Debug("operator alerts disabled, skipping escalation notice",
			"conversation_id", summary.ConversationID)
		return
	}

	req := &telegram.SendMessageRequest{
		ChatID:                n.chatID,
		Text:                  formatAlert(summary),
		ParseMode:             telegram.ParseModeMarkdown,
		DisableWebPagePreview: true,
		ReplyMarkup:           AlertKeyboard(summary.ConversationID),
	}

	if err := n.sender.SendMessage(ctx, req); err != nil {
		if n.telemetry != nil {
			n.telemetry.RecordAlert(false)
		}
		n.logger.Error("failed to send escalation alert",
			"conversation_id", summary.ConversationID, "error", err)
		return
	}

	if n.telemetry != nil {
		n.telemetry.RecordAlert(true)
	}
	n.logger.Info("escalation alert sent",
		"conversation_id", summary.ConversationID,
		"urgency", summary.Verdict.Urgency)
}

// NotifyVisitorMessage relays a visitor message to the operator while a
// human has the conversation. The operator answers it with a plain Telegram
// reply.
func (n *Notifier) NotifyVisitorMessage(ctx context.Context, conversationID, visitorName, message string) {
	if !n.sender.Configured() {
		return
	}

	text := fmt.Sprintf("💬 *New message from %s*\n\n%q\n\n🆔 Conversation: `%s`\n\n_Reply to continue the conversation_",
		visitorName, message, conversationID)

	req := &telegram.SendMessageRequest{
		ChatID:                n.chatID,
		Text:                  text,
		ParseMode:             telegram.ParseModeMarkdown,
		DisableWebPagePreview: true,
	}

	if err := n.sender.SendMessage(ctx, req); err != nil {
		n.logger.Error("failed to relay visitor message",
			"conversation_id", conversationID, "error", err)
	}
}

// AlertKeyboard is the standard action keyboard attached to every
// escalation alert.
func AlertKeyboard(conversationID string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "✅ Take Over", CallbackData: "takeover_" + conversationID},
				{Text: "📝 Quick Reply", CallbackData: "reply_" + conversationID},
			},
			{
				{Text: "✔️ Mark Resolved", CallbackData: "resolve_" + conversationID},
				{Text: "📊 View Full History", CallbackData: "history_" + conversationID},
			},
			{
				{Text: "💼 Business Inquiry", CallbackData: "template_business_" + conversationID},
				{Text: "🤝 Collaboration", CallbackData: "template_collab_" + conversationID},
			},
		},
	}
}

func formatAlert(summary *domain.ConversationSummary) string {
	verdict := summary.Verdict

	urgencyEmoji := map[string]string{
		domain.UrgencyHigh:   "🔴",
		domain.UrgencyMedium: "🟡",
		domain.UrgencyLow:    "🟢",
	}[verdict.Urgency]

	user := summary.VisitorName
	if summary.VisitorEmail != "" {
		user += fmt.Sprintf(" (%s)", summary.VisitorEmail)
	}

	reasons := make([]string, 0, len(verdict.Reasons))
	for _, r := range verdict.Reasons {
		reasons = append(reasons, "• "+r)
	}

	history := summary.History
	if len(history) > historyPreviewCount {
		history = history[len(history)-historyPreviewCount:]
	}
	preview := make([]string, 0, len(history))
	for i := range history {
		preview = append(preview, fmt.Sprintf("%s: %s",
			history[i].SenderType, truncate(history[i].Body, historyPreviewLimit)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *ESCALATION NEEDED* %s\n\n", urgencyEmoji, urgencyEmoji)
	fmt.Fprintf(&b, "👤 *User:* %s\n", user)
	fmt.Fprintf(&b, "💬 *Messages:* %d\n", summary.MessageCount)
	fmt.Fprintf(&b, "🎯 *Confidence:* %d%%\n", int(verdict.Confidence*100+0.5))
	fmt.Fprintf(&b, "⚠️ *Urgency:* %s\n\n", strings.ToUpper(verdict.Urgency))
	fmt.Fprintf(&b, "📋 *Escalation Reasons:*\n%s\n\n", strings.Join(reasons, "\n"))
	fmt.Fprintf(&b, "💬 *Latest Message:*\n%q\n\n", summary.UserMessage)
	fmt.Fprintf(&b, "🤖 *AI Response:*\n%q\n\n", truncate(summary.AIResponse, aiResponsePreviewLimit))
	fmt.Fprintf(&b, "📊 *Recent History:*\n%s\n\n", strings.Join(preview, "\n"))
	fmt.Fprintf(&b, "🆔 Conversation: `%s`", summary.ConversationID)

	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
