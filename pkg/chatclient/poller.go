package chatclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPollInterval matches the web widget's polling cadence.
const DefaultPollInterval = 3 * time.Second

const statusHumanActive = "human_active"

// PollerOptions configures a Poller. Zero values get defaults.
type PollerOptions struct {
	Interval time.Duration

	// OnMessage receives each new operator message, oldest first.
	OnMessage func(msg PolledMessage)
	// OnTakeover fires once, the first time the conversation is seen in
	// the human-active state.
	OnTakeover func()
	// OnError receives transport failures; polling continues regardless.
	OnError func(err error)
}

// Poller periodically fetches operator messages for one visitor and advances
// its cursor past everything it has delivered.
type Poller struct {
	client *Client
	userID string
	opts   PollerOptions

	cursor   *time.Time
	tookOver bool
	busy     atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a Poller for the visitor.
func NewPoller(client *Client, userID string, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	return &Poller{client: client, userID: userID, opts: opts, stop: make(chan struct{})}
}

// Run polls until the context is cancelled or Stop is called. A tick that
// fires while the previous poll is still in flight is skipped rather than
// queued.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			if !p.busy.CompareAndSwap(false, true) {
				continue
			}
			p.pollOnce(ctx)
			p.busy.Store(false)
		}
	}
}

// Stop terminates Run. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Poller) pollOnce(ctx context.Context) {
	resp, err := p.client.Poll(ctx, p.userID, p.cursor)
	if err != nil {
		if p.opts.OnError != nil && ctx.Err() == nil {
			p.opts.OnError(err)
		}
		return
	}
	p.apply(resp)
}

// apply delivers new messages, advances the cursor, and fires the one-time
// takeover notice.
func (p *Poller) apply(resp *PollResponse) {
	for i := range resp.NewMessages {
		msg := resp.NewMessages[i]
		if p.opts.OnMessage != nil {
			p.opts.OnMessage(msg)
		}
		if p.cursor == nil || msg.CreatedAt.After(*p.cursor) {
			ts := msg.CreatedAt
			p.cursor = &ts
		}
	}

	if resp.ConversationStatus == statusHumanActive && !p.tookOver {
		p.tookOver = true
		if p.opts.OnTakeover != nil {
			p.opts.OnTakeover()
		}
	}
}
