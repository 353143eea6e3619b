// Package escalation decides when a conversation needs a human.
// rules.go defines the ordered table of independent escalation checks.
package escalation

import (
	"regexp"
	"strings"

	"github.com/marcveslino/portfolio-assistant/internal/domain"
)

// Confidence constants. The analyzer starts at the baseline and each fired
// check can only lower the value; escalation triggers below the threshold or
// whenever any reason exists.
const (
	baselineConfidence     = 0.8
	escalateThreshold      = 0.7
	confidenceHumanRequest = 0.3
	confidenceFrustration  = 0.4
	confidenceBusiness     = 0.5
	confidenceRepetition   = 0.6
	confidenceUncertainty  = 0.5
	confidenceSensitive    = 0.4
	confidenceCustomWork   = 0.5
)

// Long-input and long-conversation checks subtract rather than floor.
const (
	longMessageLength       = 300
	longMessagePenalty      = 0.2
	longMessageFloor        = 0.5
	longConversationCount   = 10
	longConversationPenalty = 0.1
	longConversationFloor   = 0.6
)

// Repetition detection parameters: any pair among the last three visitor
// messages sharing at least two words longer than four characters.
const (
	repetitionWindow     = 3
	repetitionMinShared  = 2
	repetitionMinWordLen = 4
)

// Explicit request to reach a person. Highest-severity check.
var humanRequestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)speak to (you|marc|human|real person|owner)`),
	regexp.MustCompile(`(?i)talk to (you|marc|human|real person|owner)`),
	regexp.MustCompile(`(?i)contact (you|marc|owner)`),
	regexp.MustCompile(`(?i)i want to talk to`),
}

var frustrationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)frustrated|angry|upset|annoyed|terrible|awful|useless`),
	regexp.MustCompile(`(?i)not helping|doesn't help|can't help`),
}

var businessPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)hire|hiring|job|opportunity|position|work with|collaborate|project quote|budget|cost|price`),
}

// Uncertainty phrases are matched against the assistant reply, not the
// visitor message.
var uncertaintyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)i'm not sure|i don't know|i cannot|i can't help with that|beyond my knowledge`),
	regexp.MustCompile(`(?i)you might want to contact|reach out to marc directly`),
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)payment|refund|complaint|legal|contract|nda|confidential|private`),
}

var customWorkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)custom (project|work|development)|specific (needs|requirements)|unique (project|solution)`),
}

// rule is one independent escalation check. Checks do not gate each other:
// every rule is evaluated, and each firing appends its reason, lowers
// confidence via adjust, and raises urgency to at least its level.
type rule struct {
	name    string
	reason  string
	urgency string
	matches func(ctx *domain.ConversationContext, userMsg, aiMsg string) bool
	adjust  func(confidence float64) float64
}

// floorTo returns an adjuster that lowers confidence to at most limit.
// A later, less severe check never raises confidence back up.
func floorTo(limit float64) func(float64) float64 {
	return func(confidence float64) float64 {
		if confidence < limit {
			return confidence
		}
		return limit
	}
}

// subtractTo returns an adjuster that subtracts penalty but never goes
// below floor, and never raises a confidence that a more severe check has
// already pushed under the floor.
func subtractTo(penalty, floor float64) func(float64) float64 {
	return func(confidence float64) float64 {
		reduced := confidence - penalty
		if reduced < floor {
			reduced = floor
		}
		if reduced > confidence {
			return confidence
		}
		return reduced
	}
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// checks is the ordered escalation rule table. Order determines reason
// ordering in the verdict only; firing is independent per rule.
var checks = []rule{
	{
		name:    "human_request",
		reason:  "User explicitly requested human contact",
		urgency: domain.UrgencyHigh,
		matches: func(_ *domain.ConversationContext, userMsg, _ string) bool {
			return matchAny(humanRequestPatterns, userMsg)
		},
		adjust: floorTo(confidenceHumanRequest),
	},
	{
		name:    "frustration",
		reason:  "User frustration detected",
		urgency: domain.UrgencyHigh,
		matches: func(_ *domain.ConversationContext, userMsg, _ string) bool {
			return matchAny(frustrationPatterns, userMsg)
		},
		adjust: floorTo(confidenceFrustration),
	},
	{
		name:    "business_inquiry",
		reason:  "Business/hiring inquiry - requires personal attention",
		urgency: domain.UrgencyHigh,
		matches: func(_ *domain.ConversationContext, userMsg, _ string) bool {
			return matchAny(businessPatterns, userMsg)
		},
		adjust: floorTo(confidenceBusiness),
	},
	{
		name:    "long_message",
		reason:  "Complex query (long message)",
		urgency: domain.UrgencyMedium,
		matches: func(ctx *domain.ConversationContext, _, _ string) bool {
			return len(ctx.UserMessage) > longMessageLength
		},
		adjust: subtractTo(longMessagePenalty, longMessageFloor),
	},
	{
		name:    "repetition",
		reason:  "User asking similar questions repeatedly",
		urgency: domain.UrgencyMedium,
		matches: func(ctx *domain.ConversationContext, _, _ string) bool {
			return hasRepeatedQuestions(ctx.RecentMessages)
		},
		adjust: floorTo(confidenceRepetition),
	},
	{
		name:    "ai_uncertainty",
		reason:  "AI expressed uncertainty",
		urgency: domain.UrgencyMedium,
		matches: func(_ *domain.ConversationContext, _, aiMsg string) bool {
			return matchAny(uncertaintyPatterns, aiMsg)
		},
		adjust: floorTo(confidenceUncertainty),
	},
	{
		name:    "sensitive_topic",
		reason:  "Sensitive topic detected",
		urgency: domain.UrgencyHigh,
		matches: func(_ *domain.ConversationContext, userMsg, _ string) bool {
			return matchAny(sensitivePatterns, userMsg)
		},
		adjust: floorTo(confidenceSensitive),
	},
	{
		name:    "long_conversation",
		reason:  "Long conversation - might benefit from human interaction",
		urgency: domain.UrgencyMedium,
		matches: func(ctx *domain.ConversationContext, _, _ string) bool {
			return ctx.MessageCount > longConversationCount
		},
		adjust: subtractTo(longConversationPenalty, longConversationFloor),
	},
	{
		name:    "custom_work",
		reason:  "Custom project inquiry",
		urgency: domain.UrgencyHigh,
		matches: func(_ *domain.ConversationContext, userMsg, _ string) bool {
			return matchAny(customWorkPatterns, userMsg)
		},
		adjust: floorTo(confidenceCustomWork),
	},
}

// hasRepeatedQuestions reports whether any pair among the last
// repetitionWindow visitor messages shares repetitionMinShared significant
// words. An empty or short window is a valid no-repetition signal.
func hasRepeatedQuestions(recent []domain.Message) bool {
	userMessages := make([]string, 0, len(recent))
	for _, m := range recent {
		if m.SenderType == domain.SenderUser {
			userMessages = append(userMessages, strings.ToLower(m.Body))
		}
	}
	if len(userMessages) < repetitionWindow {
		return false
	}

	window := userMessages[len(userMessages)-repetitionWindow:]
	for i := range window {
		for j := i + 1; j < len(window); j++ {
			if sharedSignificantWords(window[i], window[j]) >= repetitionMinShared {
				return true
			}
		}
	}
	return false
}

// sharedSignificantWords counts distinct words longer than
// repetitionMinWordLen characters appearing in both messages.
func sharedSignificantWords(a, b string) int {
	wordsA := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		if len(w) > repetitionMinWordLen {
			wordsA[w] = struct{}{}
		}
	}

	shared := 0
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(b) {
		if len(w) <= repetitionMinWordLen {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := wordsA[w]; ok {
			shared++
		}
	}
	return shared
}
