package domain

// Urgency levels for an escalation verdict, ordered low < medium < high.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// urgencyRank maps urgency labels to their ordering.
var urgencyRank = map[string]int{
	UrgencyLow:    0,
	UrgencyMedium: 1,
	UrgencyHigh:   2,
}

// UrgencyAtLeast returns the higher of the two urgency labels. Urgency is
// monotonically non-decreasing across escalation checks.
func UrgencyAtLeast(current, floor string) string {
	if urgencyRank[floor] > urgencyRank[current] {
		return floor
	}
	return current
}

// EscalationVerdict is the outcome of analyzing one exchange for human
// intervention. It is ephemeral: fields are written back onto the triggering
// message and conversation, never stored as a row of its own.
type EscalationVerdict struct {
	ShouldEscalate bool     `json:"should_escalate"`
	Confidence     float64  `json:"confidence"`
	Reasons        []string `json:"reasons"`
	Urgency        string   `json:"urgency"`
}

// ConversationContext is the input window for the escalation analyzer.
type ConversationContext struct {
	MessageCount   int
	RecentMessages []Message
	UserMessage    string
	AIResponse     string
}

// ConversationSummary is what the notifier receives for an exchange.
type ConversationSummary struct {
	ConversationID string
	VisitorName    string
	VisitorEmail   string
	UserMessage    string
	AIResponse     string
	MessageCount   int
	History        []Message
	Verdict        EscalationVerdict
}
