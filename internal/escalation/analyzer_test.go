package escalation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcveslino/portfolio-assistant/internal/domain"
)

func TestAnalyze_QuietContext(t *testing.T) {
	verdict := Analyze(&domain.ConversationContext{
		MessageCount: 2,
		UserMessage:  "Nice portfolio!",
		AIResponse:   "Thanks! Let me know if you want to hear about the work behind it.",
	})

	assert.False(t, verdict.ShouldEscalate)
	assert.InDelta(t, baselineConfidence, verdict.Confidence, 1e-9)
	assert.Empty(t, verdict.Reasons)
	assert.Equal(t, domain.UrgencyLow, verdict.Urgency)
}

func TestAnalyze_HumanRequest(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"speak to you", "Can I speak to you directly?"},
		{"talk to human", "I'd rather talk to human support"},
		{"contact marc", "How do I contact marc about this?"},
		{"want to talk", "i want to talk to someone real"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Analyze(&domain.ConversationContext{
				MessageCount: 1,
				UserMessage:  tt.message,
				AIResponse:   "Sure.",
			})

			assert.True(t, verdict.ShouldEscalate)
			assert.Equal(t, domain.UrgencyHigh, verdict.Urgency)
			assert.LessOrEqual(t, verdict.Confidence, confidenceHumanRequest)
			assert.Contains(t, verdict.Reasons, "User explicitly requested human contact")
		})
	}
}

func TestAnalyze_HumanRequestFloorHoldsUnderOtherChecks(t *testing.T) {
	// A message that also trips the long-message and business checks must not
	// end up above the human-request floor: later checks never raise confidence.
	long := "i want to talk to the owner about hiring you for a project. " +
		strings.Repeat("The requirements are genuinely intricate and detailed. ", 8)

	verdict := Analyze(&domain.ConversationContext{
		MessageCount: 1,
		UserMessage:  long,
		AIResponse:   "Happy to help.",
	})

	assert.True(t, verdict.ShouldEscalate)
	assert.Equal(t, domain.UrgencyHigh, verdict.Urgency)
	assert.LessOrEqual(t, verdict.Confidence, confidenceHumanRequest)
	assert.GreaterOrEqual(t, len(verdict.Reasons), 2)
}

func TestAnalyze_BusinessInquiry(t *testing.T) {
	verdict := Analyze(&domain.ConversationContext{
		MessageCount: 1,
		UserMessage:  "I want to hire you for urgent work",
		AIResponse:   "Marc is open to freelance projects.",
	})

	assert.True(t, verdict.ShouldEscalate)
	assert.Equal(t, domain.UrgencyHigh, verdict.Urgency)
	assert.Contains(t, verdict.Reasons, "Business/hiring inquiry - requires personal attention")
}

func TestAnalyze_ReasonDrivenOverride(t *testing.T) {
	// Long conversation alone lands exactly on the threshold (0.8 - 0.1 = 0.7),
	// which does not satisfy confidence < 0.7; the non-empty reason list must
	// force escalation on its own.
	verdict := Analyze(&domain.ConversationContext{
		MessageCount: longConversationCount + 1,
		UserMessage:  "Thanks, that clears it up.",
		AIResponse:   "Glad to help!",
	})

	assert.InDelta(t, baselineConfidence-longConversationPenalty, verdict.Confidence, 1e-9)
	assert.GreaterOrEqual(t, verdict.Confidence, escalateThreshold)
	assert.NotEmpty(t, verdict.Reasons)
	assert.True(t, verdict.ShouldEscalate)
	assert.Equal(t, domain.UrgencyMedium, verdict.Urgency)
}

func TestAnalyze_LongMessage(t *testing.T) {
	verdict := Analyze(&domain.ConversationContext{
		MessageCount: 1,
		UserMessage:  strings.Repeat("x", longMessageLength+1),
		AIResponse:   "Noted.",
	})

	assert.True(t, verdict.ShouldEscalate)
	assert.InDelta(t, baselineConfidence-longMessagePenalty, verdict.Confidence, 1e-9)
	assert.Equal(t, domain.UrgencyMedium, verdict.Urgency)
	assert.Contains(t, verdict.Reasons, "Complex query (long message)")
}

func TestAnalyze_Repetition(t *testing.T) {
	recent := []domain.Message{
		{SenderType: domain.SenderUser, Body: "Which databases does Marc prefer for projects?"},
		{SenderType: domain.SenderAI, Body: "MySQL and SQL Server."},
		{SenderType: domain.SenderUser, Body: "So which databases again for larger projects?"},
		{SenderType: domain.SenderAI, Body: "Still MySQL and SQL Server."},
		{SenderType: domain.SenderUser, Body: "Tell me about databases in those projects"},
	}

	verdict := Analyze(&domain.ConversationContext{
		MessageCount:   6,
		RecentMessages: recent,
		UserMessage:    "Tell me about databases in those projects",
		AIResponse:     "As mentioned, MySQL and SQL Server.",
	})

	assert.True(t, verdict.ShouldEscalate)
	assert.Contains(t, verdict.Reasons, "User asking similar questions repeatedly")
	assert.LessOrEqual(t, verdict.Confidence, confidenceRepetition)
}

func TestAnalyze_EmptyWindowIsNoRepetition(t *testing.T) {
	verdict := Analyze(&domain.ConversationContext{
		MessageCount:   1,
		RecentMessages: nil,
		UserMessage:    "Hello there",
		AIResponse:     "Hi! I'm Marc's assistant.",
	})

	assert.NotContains(t, verdict.Reasons, "User asking similar questions repeatedly")
}

func TestAnalyze_AIUncertainty(t *testing.T) {
	verdict := Analyze(&domain.ConversationContext{
		MessageCount: 3,
		UserMessage:  "Can he build a compiler?",
		AIResponse:   "I'm not sure about that, you might want to contact Marc directly.",
	})

	assert.True(t, verdict.ShouldEscalate)
	assert.Contains(t, verdict.Reasons, "AI expressed uncertainty")
	assert.LessOrEqual(t, verdict.Confidence, confidenceUncertainty)
	assert.Equal(t, domain.UrgencyMedium, verdict.Urgency)
}

func TestAnalyze_SensitiveTopic(t *testing.T) {
	verdict := Analyze(&domain.ConversationContext{
		MessageCount: 2,
		UserMessage:  "We would need an NDA before sharing details",
		AIResponse:   "Understood.",
	})

	assert.True(t, verdict.ShouldEscalate)
	assert.Equal(t, domain.UrgencyHigh, verdict.Urgency)
	assert.Contains(t, verdict.Reasons, "Sensitive topic detected")
}

func TestScore_Idempotent(t *testing.T) {
	user := "I want to hire you"
	ai := "Marc is open to freelance work."

	first := Score(user, ai)
	second := Score(user, ai)

	assert.InDelta(t, first, second, 1e-9)
}

func TestScore_IgnoresConversationWindow(t *testing.T) {
	// Score evaluates the exchange in isolation: a single message count and
	// no history, so window-dependent checks cannot fire.
	got := Score("Nice site!", "Thank you!")
	assert.InDelta(t, baselineConfidence, got, 1e-9)
}

func TestSharedSignificantWords(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"no overlap", "tell me about skills", "where is he based", 0},
		{"short words ignored", "what is the cost", "what is the cost", 0},
		{"counts distinct long words", "project details about budget", "budget details please", 2},
		{"duplicates counted once", "budget budget budget", "budget talks budget", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sharedSignificantWords(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("sharedSignificantWords(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
