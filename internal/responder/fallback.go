package responder

import (
	"regexp"
	"strings"

	"github.com/marcveslino/portfolio-assistant/internal/domain"
)

// fallbackInput carries the (already lowered) visitor message and the last
// assistant reply for context-sensitive follow-up resolution.
type fallbackInput struct {
	message       string
	lastAssistant string
}

// matcher is one row of the fallback table. respond returns the canned
// answer when the rule claims the message; ok is false to cascade onward.
type matcher struct {
	name    string
	respond func(in *fallbackInput) (string, bool)
}

var ordinalWords = map[string]int{
	"first": 0, "1st": 0,
	"second": 1, "2nd": 1,
	"third": 2, "3rd": 2,
	"fourth": 3, "4th": 3,
	"fifth": 4, "5th": 4,
	"sixth": 5, "6th": 5, "last": 5,
}

var whatIsPattern = regexp.MustCompile(`what(?:'s| is| does)\s+(?:the\s+|a\s+|an\s+)?([a-z0-9+./\- ]{2,40}?)(?:\s+mean|\s+rule)?\s*\??$`)

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// fallbackMatchers is evaluated in order; the first rule that claims the
// message wins. Project-name mentions outrank everything, then history
// follow-ups, then topic keywords from broadest to narrowest, with a
// generic answer as the floor.
var fallbackMatchers = []matcher{
	{
		name: "project_mention",
		respond: func(in *fallbackInput) (string, bool) {
			for alias, canonical := range projectAliases {
				if strings.Contains(in.message, alias) {
					return projectAnswers[canonical], true
				}
			}
			return "", false
		},
	},
	{
		name:    "history_followup",
		respond: resolveFromHistory,
	},
	{
		name: "projects",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "project", "work", "built", "made", "created", "developed", "showcase", "app") {
				return projectsAnswer, true
			}
			return "", false
		},
	},
	{
		name: "skills",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "skill", "technology", "tech", "know", "language", "framework", "tool", "stack", "expertise", "proficient", "good at", "specialize") {
				return skillsAnswer, true
			}
			return "", false
		},
	},
	{
		name: "experience",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "experience", "background", "about him", "about marc", "who is", "biography", "bio", "story", "journey", "career") {
				return experienceAnswer, true
			}
			return "", false
		},
	},
	{
		name: "how_are_you",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "how are you", "how're you", "how r u", "hows it going", "how's it going") {
				return howAreYouAnswer, true
			}
			return "", false
		},
	},
	{
		name: "who_are_you",
		respond: func(in *fallbackInput) (string, bool) {
			// "what are you" only as the whole question, or it would
			// swallow things like "what are your rates".
			trimmed := strings.TrimRight(in.message, " ?!.")
			if containsAny(in.message, "who are you", "your name") ||
				strings.HasSuffix(trimmed, "what are you") {
				return whoAreYouAnswer, true
			}
			return "", false
		},
	},
	{
		name: "greeting",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "hello", "hi ", "hey", "good morning", "good afternoon", "good evening") ||
				in.message == "hi" || in.message == "hi!" {
				return greetingAnswer, true
			}
			return "", false
		},
	},
	{
		name: "contact",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "email", "contact", "reach", "github", "linkedin", "social", "portfolio", "website", "link", "how to find", "where to find", "account") {
				return contactAnswer, true
			}
			return "", false
		},
	},
	{
		name: "availability",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "hire", "available", "freelance", "work with", "collaborate", "opportunity", "job", "position", "opening", "recruit", "looking for", "seeking") {
				return availabilityAnswer, true
			}
			return "", false
		},
	},
	{
		name: "education",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "school", "university", "college", "education", "student", "study", "degree", "major") {
				return educationAnswer, true
			}
			return "", false
		},
	},
	{
		name: "location",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "where", "location", "based", "live in") {
				return locationAnswer, true
			}
			return "", false
		},
	},
	{
		name: "age",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "how old", "age", "young") {
				return ageAnswer, true
			}
			return "", false
		},
	},
	{
		name: "hobbies",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "hobby", "hobbies", "interest", "like to do", "free time", "passion") {
				return hobbiesAnswer, true
			}
			return "", false
		},
	},
	{
		name: "pricing",
		respond: func(in *fallbackInput) (string, bool) {
			if containsAny(in.message, "price", "cost", "rate", "charge", "fee", "budget") {
				return pricingAnswer, true
			}
			return "", false
		},
	},
	{
		name: "unknown_term",
		respond: func(in *fallbackInput) (string, bool) {
			term, ok := extractWhatIsTerm(in.message)
			if !ok {
				return "", false
			}
			for _, known := range knownTerms {
				if strings.Contains(term, known) || strings.Contains(known, term) {
					return "", false
				}
			}
			return unknownTermAnswer(term), true
		},
	},
	{
		name: "generic",
		respond: func(in *fallbackInput) (string, bool) {
			return genericAnswer, true
		},
	},
}

// Fallback produces a deterministic answer for any visitor message. It never
// returns empty text; the generic persona answer is the floor.
func Fallback(message string, history []domain.ChatTurn) string {
	in := &fallbackInput{
		message:       strings.ToLower(strings.TrimSpace(message)),
		lastAssistant: strings.ToLower(lastAssistantTurn(history)),
	}
	for _, m := range fallbackMatchers {
		if answer, ok := m.respond(in); ok {
			return answer
		}
	}
	return genericAnswer
}

func lastAssistantTurn(history []domain.ChatTurn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.SenderAI {
			return history[i].Content
		}
	}
	return ""
}

// resolveFromHistory handles concept explanations, per-skill questions, and
// ordinal references into the project list. Ordinals and the broader skill
// vocabulary only resolve when the previous assistant reply set them up.
func resolveFromHistory(in *fallbackInput) (string, bool) {
	// Concept follow-ups about terms the assistant just used.
	if containsAny(in.message, "50/30/20", "50 30 20", "fifty thirty twenty") ||
		(strings.Contains(in.lastAssistant, "50/30/20") && containsAny(in.message, "that rule", "the rule", "this rule")) {
		return fiftyThirtyTwentyAnswer, true
	}
	if containsAny(in.message, "otp", "one-time password", "one time password") {
		return otpAnswer, true
	}
	if containsAny(in.message, "ai-powered", "ai powered") ||
		(strings.Contains(in.lastAssistant, "ai-powered") && containsAny(in.message, "how does the ai", "what does the ai")) {
		return aiPoweredAnswer, true
	}

	// Per-skill follow-ups after the skills overview. Core skill terms get a
	// real answer even without the previous message mentioning them.
	skillsContext := containsAny(in.lastAssistant, "frontend", "backend", "specializes", "proficient")
	for _, sa := range skillAnswers {
		for _, kw := range sa.keywords {
			if !strings.Contains(in.message, kw) {
				continue
			}
			if skillsContext || isSkillTerm(kw) {
				return sa.answer, true
			}
		}
	}
	if skillsContext && containsAny(in.message, "language", "languages") {
		return languagesAnswer, true
	}

	// Ordinal references resolve against the canonical project order, but
	// only when the previous reply actually listed or described projects.
	if containsAny(in.message, "more", "tell", "about", "one", "that", "it") {
		for word, idx := range ordinalWords {
			if !containsAny(in.message, word) {
				continue
			}
			name := projectNames[idx]
			if strings.Contains(in.lastAssistant, strings.ToLower(name)) ||
				strings.Contains(in.lastAssistant, "project") {
				return projectAnswers[name], true
			}
		}
	}

	return "", false
}

func isSkillTerm(term string) bool {
	for _, t := range skillTerms {
		if strings.Contains(term, t) || strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// extractWhatIsTerm pulls the subject out of a "what is X" style question.
func extractWhatIsTerm(message string) (string, bool) {
	m := whatIsPattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	term := strings.TrimSpace(m[1])
	if term == "" || term == "it" || term == "that" || term == "this" {
		return "", false
	}
	return term, true
}

// AvailabilityOverride answers availability questions ahead of the
// generative path so hiring intent never gets a project listing by mistake.
func AvailabilityOverride(message string) (string, bool) {
	lower := strings.ToLower(message)
	if containsAny(lower, "available", "availability", "hiring", "hire") &&
		!containsAny(lower, "project", "skill") {
		return availabilityAnswer, true
	}
	return "", false
}
