// Package telemetry exports Prometheus metrics for the assistant service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all assistant Prometheus metrics
type Metrics struct {
	// Chat pipeline metrics
	ChatMessages    *prometheus.CounterVec
	ChatDuration    prometheus.Histogram
	FallbackReplies prometheus.Counter
	RelayedToHuman  prometheus.Counter

	// Escalation metrics
	Escalations      *prometheus.CounterVec
	EscalationAlerts prometheus.Counter
	AlertFailures    prometheus.Counter

	// Operator protocol metrics
	WebhookUpdates   *prometheus.CounterVec
	OperatorActions  *prometheus.CounterVec
	RecoveryOutcomes *prometheus.CounterVec

	// Polling metrics
	PollRequests  prometheus.Counter
	PollDelivered prometheus.Counter
}

// Provider wraps the metrics registry for the service.
type Provider struct {
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics
func NewProvider() *Provider {
	return &Provider{Metrics: initMetrics()}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initChatMetrics(m)
	initEscalationMetrics(m)
	initOperatorMetrics(m)
	initPollMetrics(m)
	return m
}

func initChatMetrics(m *Metrics) {
	m.ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_chat_messages_total",
		Help: "Visitor messages processed, by conversation status at intake",
	}, []string{"status"})

	m.ChatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_chat_duration_seconds",
		Help:    "Time to handle one visitor message end to end",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 20.0},
	})

	m.FallbackReplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_fallback_replies_total",
		Help: "Replies produced by the deterministic fallback instead of the model",
	})

	m.RelayedToHuman = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_relayed_to_human_total",
		Help: "Visitor messages relayed directly to the operator during takeover",
	})
}

func initEscalationMetrics(m *Metrics) {
	m.Escalations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_escalations_total",
		Help: "Escalation verdicts that fired, by urgency",
	}, []string{"urgency"})

	m.EscalationAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_escalation_alerts_total",
		Help: "Escalation alerts delivered to the operator chat",
	})

	m.AlertFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_alert_failures_total",
		Help: "Operator alert deliveries that failed",
	})
}

func initOperatorMetrics(m *Metrics) {
	m.WebhookUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_webhook_updates_total",
		Help: "Bot webhook updates received, by kind (message, callback, other)",
	}, []string{"kind"})

	m.OperatorActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_operator_actions_total",
		Help: "Operator callback actions handled, by action",
	}, []string{"action"})

	m.RecoveryOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_reply_recovery_total",
		Help: "Conversation lookups for free-text operator replies, by strategy (reply_tag, alert_tag, recent, failed)",
	}, []string{"strategy"})
}

func initPollMetrics(m *Metrics) {
	m.PollRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_poll_requests_total",
		Help: "Client polling requests served",
	})

	m.PollDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_poll_messages_delivered_total",
		Help: "Operator messages delivered to clients through polling",
	})
}

// RecordChatMessage records one handled visitor message.
func (p *Provider) RecordChatMessage(status string, duration time.Duration) {
	p.Metrics.ChatMessages.WithLabelValues(status).Inc()
	p.Metrics.ChatDuration.Observe(duration.Seconds())
}

// RecordFallbackReply increments the fallback reply counter.
func (p *Provider) RecordFallbackReply() {
	p.Metrics.FallbackReplies.Inc()
}

// RecordRelayedToHuman increments the takeover relay counter.
func (p *Provider) RecordRelayedToHuman() {
	p.Metrics.RelayedToHuman.Inc()
}

// RecordEscalation records a fired escalation verdict.
func (p *Provider) RecordEscalation(urgency string) {
	p.Metrics.Escalations.WithLabelValues(urgency).Inc()
}

// RecordAlert records an operator alert delivery attempt.
func (p *Provider) RecordAlert(success bool) {
	if success {
		p.Metrics.EscalationAlerts.Inc()
		return
	}
	p.Metrics.AlertFailures.Inc()
}

// RecordWebhookUpdate records one bot webhook update by kind.
func (p *Provider) RecordWebhookUpdate(kind string) {
	p.Metrics.WebhookUpdates.WithLabelValues(kind).Inc()
}

// RecordOperatorAction records one handled callback action.
func (p *Provider) RecordOperatorAction(action string) {
	p.Metrics.OperatorActions.WithLabelValues(action).Inc()
}

// RecordRecovery records which strategy resolved a free-text operator reply.
func (p *Provider) RecordRecovery(strategy string) {
	p.Metrics.RecoveryOutcomes.WithLabelValues(strategy).Inc()
}

// RecordPoll records one polling request and how many messages it delivered.
func (p *Provider) RecordPoll(delivered int) {
	p.Metrics.PollRequests.Inc()
	p.Metrics.PollDelivered.Add(float64(delivered))
}
