package escalation

import (
	"strings"

	"github.com/marcveslino/portfolio-assistant/internal/domain"
)

// Analyze evaluates the rule table against one exchange and produces a
// verdict. Pure: no I/O, no hidden state. Urgency only rises across fired
// checks and confidence only falls; escalation triggers when confidence
// drops below the threshold or any reason fired.
func Analyze(ctx *domain.ConversationContext) domain.EscalationVerdict {
	userMsg := strings.ToLower(ctx.UserMessage)
	aiMsg := strings.ToLower(ctx.AIResponse)

	verdict := domain.EscalationVerdict{
		Confidence: baselineConfidence,
		Urgency:    domain.UrgencyLow,
		Reasons:    []string{},
	}

	for _, check := range checks {
		if !check.matches(ctx, userMsg, aiMsg) {
			continue
		}
		verdict.Reasons = append(verdict.Reasons, check.reason)
		verdict.Confidence = check.adjust(verdict.Confidence)
		verdict.Urgency = domain.UrgencyAtLeast(verdict.Urgency, check.urgency)
	}

	verdict.ShouldEscalate = verdict.Confidence < escalateThreshold || len(verdict.Reasons) > 0

	return verdict
}

// Score computes the confidence for a single exchange in isolation, with no
// conversation window. Used for per-message analytics.
func Score(userMessage, aiResponse string) float64 {
	verdict := Analyze(&domain.ConversationContext{
		MessageCount:   1,
		RecentMessages: nil,
		UserMessage:    userMessage,
		AIResponse:     aiResponse,
	})
	return verdict.Confidence
}
