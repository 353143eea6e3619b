package handoff

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcveslino/portfolio-assistant/internal/database"
	"github.com/marcveslino/portfolio-assistant/internal/domain"
	"github.com/marcveslino/portfolio-assistant/internal/logging"
	"github.com/marcveslino/portfolio-assistant/internal/telegram"
)

type fakeConvStore struct {
	convs   map[string]*domain.Conversation
	recent  *domain.Conversation
	patches map[string][]domain.ConversationPatch
}

func newFakeConvStore(convs ...*domain.Conversation) *fakeConvStore {
	s := &fakeConvStore{
		convs:   map[string]*domain.Conversation{},
		patches: map[string][]domain.ConversationPatch{},
	}
	for _, c := range convs {
		s.convs[c.ID] = c
	}
	return s
}

func (s *fakeConvStore) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	if c, ok := s.convs[id]; ok {
		return c, nil
	}
	return nil, database.ErrConversationNotFound
}

func (s *fakeConvStore) Update(_ context.Context, id string, patch domain.ConversationPatch) error {
	if _, ok := s.convs[id]; !ok {
		return database.ErrConversationNotFound
	}
	s.patches[id] = append(s.patches[id], patch)
	if patch.Status != nil {
		s.convs[id].Status = *patch.Status
	}
	if patch.Escalated != nil {
		s.convs[id].Escalated = *patch.Escalated
	}
	return nil
}

func (s *fakeConvStore) MostRecentEscalated(_ context.Context) (*domain.Conversation, error) {
	if s.recent == nil {
		return nil, database.ErrConversationNotFound
	}
	return s.recent, nil
}

type fakeMsgStore struct {
	inserted []domain.Message
	all      []domain.Message
}

func (s *fakeMsgStore) Insert(_ context.Context, msg *domain.Message) error {
	s.inserted = append(s.inserted, *msg)
	return nil
}

func (s *fakeMsgStore) ListAll(_ context.Context, _ string) ([]domain.Message, error) {
	return s.all, nil
}

type fakeBot struct {
	sent     []*telegram.SendMessageRequest
	edited   []*telegram.EditMessageTextRequest
	markups  []*telegram.EditMessageReplyMarkupRequest
	answered []*telegram.AnswerCallbackQueryRequest
}

func (b *fakeBot) SendMessage(_ context.Context, req *telegram.SendMessageRequest) error {
	b.sent = append(b.sent, req)
	return nil
}

func (b *fakeBot) EditMessageText(_ context.Context, req *telegram.EditMessageTextRequest) error {
	b.edited = append(b.edited, req)
	return nil
}

func (b *fakeBot) EditMessageReplyMarkup(_ context.Context, req *telegram.EditMessageReplyMarkupRequest) error {
	b.markups = append(b.markups, req)
	return nil
}

func (b *fakeBot) AnswerCallbackQuery(_ context.Context, req *telegram.AnswerCallbackQueryRequest) error {
	b.answered = append(b.answered, req)
	return nil
}

func newTestHandler(convs *fakeConvStore, msgs *fakeMsgStore, bot *fakeBot) *Handler {
	return NewHandler(convs, msgs, bot, nil, logging.NewNop())
}

func callbackUpdate(data string) *telegram.Update {
	return &telegram.Update{
		CallbackQuery: &telegram.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			Message: &telegram.Message{
				MessageID: 77,
				Chat:      telegram.Chat{ID: 42},
			},
		},
	}
}

func replyUpdate(repliedText, replyText string) *telegram.Update {
	return &telegram.Update{
		Message: &telegram.Message{
			MessageID: 88,
			Chat:      telegram.Chat{ID: 42},
			Text:      replyText,
			ReplyToMessage: &telegram.Message{
				MessageID: 77,
				Chat:      telegram.Chat{ID: 42},
				Text:      repliedText,
			},
		},
	}
}

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		data     string
		action   string
		convID   string
		template string
	}{
		{"takeover_abc123", "takeover", "abc123", ""},
		{"resolve_conv_with_underscores", "resolve", "conv_with_underscores", ""},
		{"template_business_abc123", "template", "abc123", "business"},
		{"template_collab_conv_1", "template", "conv_1", "collab"},
		{"back_abc123", "back", "abc123", ""},
		{"bogus", "bogus", "", ""},
	}

	for _, tt := range tests {
		action, convID, template := parseCallbackData(tt.data)
		assert.Equal(t, tt.action, action, tt.data)
		assert.Equal(t, tt.convID, convID, tt.data)
		assert.Equal(t, tt.template, template, tt.data)
	}
}

func TestTakeoverActivatesHuman(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{ID: "conv-1", Status: domain.StatusWaitingHuman})
	bot := &fakeBot{}
	h := newTestHandler(convs, &fakeMsgStore{}, bot)

	h.HandleUpdate(context.Background(), callbackUpdate("takeover_conv-1"))

	assert.Equal(t, domain.StatusHumanActive, convs.convs["conv-1"].Status)

	// Alert text is rewritten in place and the instruction message carries
	// the conversation tag for threaded replies.
	require.Len(t, bot.edited, 1)
	assert.Contains(t, bot.edited[0].Text, "You took over this conversation")
	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0].Text, "Conversation ID: `conv-1`")

	require.Len(t, bot.answered, 1)
	assert.Equal(t, "cb-1", bot.answered[0].CallbackQueryID)
}

func TestTakeoverOnClosedConversationRefused(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{ID: "conv-1", Status: domain.StatusClosed})
	bot := &fakeBot{}
	h := newTestHandler(convs, &fakeMsgStore{}, bot)

	h.HandleUpdate(context.Background(), callbackUpdate("takeover_conv-1"))

	assert.Empty(t, convs.patches["conv-1"])
	assert.Equal(t, domain.StatusClosed, convs.convs["conv-1"].Status)
	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0].Text, "already closed")
	assert.Len(t, bot.answered, 1)
}

func TestResolveClosesConversation(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{
		ID: "conv-1", Status: domain.StatusHumanActive, Escalated: true,
	})
	bot := &fakeBot{}
	h := newTestHandler(convs, &fakeMsgStore{}, bot)

	h.HandleUpdate(context.Background(), callbackUpdate("resolve_conv-1"))

	assert.Equal(t, domain.StatusClosed, convs.convs["conv-1"].Status)
	assert.False(t, convs.convs["conv-1"].Escalated)
	require.Len(t, bot.edited, 1)
	assert.Contains(t, bot.edited[0].Text, "marked as resolved")
}

func TestQuickReplyShowsTemplatePicker(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{ID: "conv-1", Status: domain.StatusWaitingHuman})
	bot := &fakeBot{}
	h := newTestHandler(convs, &fakeMsgStore{}, bot)

	h.HandleUpdate(context.Background(), callbackUpdate("reply_conv-1"))

	require.Len(t, bot.markups, 1)
	kb := bot.markups[0].ReplyMarkup
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 4)
	assert.Equal(t, "template_business_conv-1", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "back_conv-1", kb.InlineKeyboard[3][0].CallbackData)
}

func TestBackRestoresAlertKeyboard(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{ID: "conv-1", Status: domain.StatusWaitingHuman})
	bot := &fakeBot{}
	h := newTestHandler(convs, &fakeMsgStore{}, bot)

	h.HandleUpdate(context.Background(), callbackUpdate("back_conv-1"))

	require.Len(t, bot.markups, 1)
	kb := bot.markups[0].ReplyMarkup
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "takeover_conv-1", kb.InlineKeyboard[0][0].CallbackData)
}

func TestTemplateSendsPersonalizedText(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{
		ID: "conv-1", Status: domain.StatusWaitingHuman, VisitorName: "Alice",
	})
	bot := &fakeBot{}
	h := newTestHandler(convs, &fakeMsgStore{}, bot)

	h.HandleUpdate(context.Background(), callbackUpdate("template_business_conv-1"))

	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0].Text, "Hi Alice!")
	assert.Contains(t, bot.sent[0].Text, "Template Response")
	require.Len(t, bot.edited, 1)
	assert.Contains(t, bot.edited[0].Text, "Template sent")
}

func TestViewHistoryEmpty(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{ID: "conv-1", Status: domain.StatusWaitingHuman})
	bot := &fakeBot{}
	h := newTestHandler(convs, &fakeMsgStore{}, bot)

	h.HandleUpdate(context.Background(), callbackUpdate("history_conv-1"))

	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0].Text, "No conversation history")
}

func TestDirectReplyViaInstructionTag(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{
		ID: "abc123", Status: domain.StatusHumanActive, VisitorName: "Alice",
	})
	msgs := &fakeMsgStore{}
	bot := &fakeBot{}
	h := newTestHandler(convs, msgs, bot)

	h.HandleUpdate(context.Background(), replyUpdate(
		"📝 *How to respond:*\n\nReply to this message\n\nConversation ID: `abc123`",
		"Hi Alice, Marc here!"))

	require.Len(t, msgs.inserted, 1)
	assert.Equal(t, domain.SenderHuman, msgs.inserted[0].SenderType)
	assert.Equal(t, "Hi Alice, Marc here!", msgs.inserted[0].Body)
	assert.Equal(t, "abc123", msgs.inserted[0].ConversationID)

	assert.Equal(t, domain.StatusHumanActive, convs.convs["abc123"].Status)

	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0].Text, "Message sent to Alice")
	assert.Equal(t, int64(88), bot.sent[0].ReplyToMessageID)
}

func TestDirectReplyViaAlertTagActivatesHuman(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{
		ID: "conv-9", Status: domain.StatusWaitingHuman, VisitorName: "Bob",
	})
	msgs := &fakeMsgStore{}
	bot := &fakeBot{}
	h := newTestHandler(convs, msgs, bot)

	h.HandleUpdate(context.Background(), replyUpdate(
		"🔴 *ESCALATION NEEDED* 🔴\n...\n🆔 Conversation: `conv-9`",
		"On my way"))

	require.Len(t, msgs.inserted, 1)
	assert.Equal(t, "conv-9", msgs.inserted[0].ConversationID)
	assert.Equal(t, domain.StatusHumanActive, convs.convs["conv-9"].Status)
}

func TestDirectReplyFallsBackToRecentEscalated(t *testing.T) {
	conv := &domain.Conversation{ID: "conv-7", Status: domain.StatusWaitingHuman}
	convs := newFakeConvStore(conv)
	convs.recent = conv
	msgs := &fakeMsgStore{}
	bot := &fakeBot{}
	h := newTestHandler(convs, msgs, bot)

	h.HandleUpdate(context.Background(), replyUpdate("some untagged message", "hello"))

	require.Len(t, msgs.inserted, 1)
	assert.Equal(t, "conv-7", msgs.inserted[0].ConversationID)
}

func TestDirectReplyWithoutTargetFails(t *testing.T) {
	convs := newFakeConvStore()
	msgs := &fakeMsgStore{}
	bot := &fakeBot{}
	h := newTestHandler(convs, msgs, bot)

	h.HandleUpdate(context.Background(), replyUpdate("some untagged message", "hello"))

	assert.Empty(t, msgs.inserted)
	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0].Text, "Could not find conversation")
}

func TestDirectReplyToClosedConversationRefused(t *testing.T) {
	convs := newFakeConvStore(&domain.Conversation{ID: "abc123", Status: domain.StatusClosed})
	msgs := &fakeMsgStore{}
	bot := &fakeBot{}
	h := newTestHandler(convs, msgs, bot)

	h.HandleUpdate(context.Background(), replyUpdate("Conversation ID: `abc123`", "too late"))

	assert.Empty(t, msgs.inserted)
	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0].Text, "has been closed")
}

func TestChunkTextSplitsLongHistory(t *testing.T) {
	long := strings.Repeat("a", 9500)
	chunks := chunkText(long, messageChunkSize)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), messageChunkSize)
	}
	assert.Equal(t, long, strings.Join(chunks, ""))
}
