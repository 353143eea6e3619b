package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/marcveslino/portfolio-assistant/internal/telemetry"
)

// providerOnce ensures we only create one Provider per test run to avoid
// duplicate Prometheus metric registration errors from promauto's global registry
var (
	testProvider *telemetry.Provider
	providerOnce sync.Once
)

func getTestProvider(t *testing.T) *telemetry.Provider {
	t.Helper()
	providerOnce.Do(func() {
		testProvider = telemetry.NewProvider()
	})
	return testProvider
}

func TestNewProvider(t *testing.T) {
	provider := getTestProvider(t)
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
	if provider.Metrics == nil {
		t.Error("expected non-nil metrics")
	}
	if provider.Handler() == nil {
		t.Error("expected non-nil metrics handler")
	}
}

func TestRecordChatMessage(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.RecordChatMessage("active", 100*time.Millisecond)
	provider.RecordChatMessage("waiting_human", 50*time.Millisecond)
	provider.RecordFallbackReply()
	provider.RecordRelayedToHuman()
}

func TestRecordEscalation(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.RecordEscalation("high")
	provider.RecordAlert(true)
	provider.RecordAlert(false)
}

func TestRecordOperatorFlow(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.RecordWebhookUpdate("callback")
	provider.RecordOperatorAction("takeover")
	provider.RecordRecovery("reply_tag")
	provider.RecordPoll(2)
	provider.RecordPoll(0)
}
