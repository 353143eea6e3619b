package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var gotPath string
	var gotReq SendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(SendResponse{
			Success:        true,
			Response:       "Hello!",
			ConversationID: "conv-1",
			Confidence:     0.8,
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	resp, err := client.Send(context.Background(), &SendRequest{
		Message: "hi", UserID: "visitor-1", UserName: "Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/chat", gotPath)
	assert.Equal(t, "visitor-1", gotReq.UserID)
	assert.True(t, resp.Success)
	assert.Equal(t, "conv-1", resp.ConversationID)
}

func TestClientSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Send(context.Background(), &SendRequest{Message: "hi", UserID: "v"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClientPollSendsCursor(t *testing.T) {
	var gotReq pollRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(PollResponse{NewMessages: []PolledMessage{}})
	}))
	defer srv.Close()

	cursor := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	client := New(srv.URL)
	_, err := client.Poll(context.Background(), "visitor-1", &cursor)
	require.NoError(t, err)

	require.NotNil(t, gotReq.LastMessageTime)
	assert.True(t, cursor.Equal(*gotReq.LastMessageTime))
}

func TestPollerAppliesMessagesAndAdvancesCursor(t *testing.T) {
	var delivered []string
	p := NewPoller(New("http://unused"), "visitor-1", PollerOptions{
		OnMessage: func(msg PolledMessage) { delivered = append(delivered, msg.Message) },
	})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.apply(&PollResponse{
		NewMessages: []PolledMessage{
			{Message: "first", CreatedAt: base},
			{Message: "second", CreatedAt: base.Add(time.Minute)},
		},
		ConversationStatus: "waiting_human",
	})

	assert.Equal(t, []string{"first", "second"}, delivered)
	require.NotNil(t, p.cursor)
	assert.True(t, p.cursor.Equal(base.Add(time.Minute)))

	// An empty poll leaves the cursor where it was.
	p.apply(&PollResponse{ConversationStatus: "waiting_human"})
	assert.True(t, p.cursor.Equal(base.Add(time.Minute)))
}

func TestPollerTakeoverNoticeFiresOnce(t *testing.T) {
	notices := 0
	p := NewPoller(New("http://unused"), "visitor-1", PollerOptions{
		OnTakeover: func() { notices++ },
	})

	p.apply(&PollResponse{ConversationStatus: "human_active"})
	p.apply(&PollResponse{ConversationStatus: "human_active"})
	p.apply(&PollResponse{ConversationStatus: "human_active"})

	assert.Equal(t, 1, notices)
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	polls := make(chan struct{}, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		polls <- struct{}{}
		_ = json.NewEncoder(w).Encode(PollResponse{NewMessages: []PolledMessage{}})
	}))
	defer srv.Close()

	p := NewPoller(New(srv.URL), "visitor-1", PollerOptions{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// Wait for at least one poll, then stop.
	select {
	case <-polls:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never polled")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}

func TestPollerRunStopsOnStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(PollResponse{NewMessages: []PolledMessage{}})
	}))
	defer srv.Close()

	p := NewPoller(New(srv.URL), "visitor-1", PollerOptions{Interval: 10 * time.Millisecond})

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()

	p.Stop()
	p.Stop() // idempotent

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on Stop")
	}
}
