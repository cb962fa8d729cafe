// Package events fans out domain events to many subscribers over bounded
// channels, keeping a ring-buffer history so a lagging or reconnecting
// consumer can recover what it missed by sequence number instead of
// blocking the publisher.
package events

import (
	"sync"

	"github.com/mExOms/mm-kernel/pkg/types"
)

// Config sizes the broadcaster's per-subscriber channel and retained
// history.
type Config struct {
	ChannelCapacity int
	HistorySize     int
}

// Broadcaster assigns a monotonic sequence to every event, pushes it to
// every live subscriber channel without blocking, and keeps the last
// HistorySize events for replay.
type Broadcaster struct {
	mu          sync.Mutex
	cfg         Config
	nextSeq     uint64
	subscribers map[int]chan types.MarketMakerEvent
	nextSubID   int
	history     []types.MarketMakerEvent
}

// New builds a broadcaster with the given channel capacity and history
// size.
func New(cfg Config) *Broadcaster {
	return &Broadcaster{
		cfg:         cfg,
		subscribers: make(map[int]chan types.MarketMakerEvent),
	}
}

// Subscribe registers a new consumer and returns its channel plus an
// unsubscribe function.
func (b *Broadcaster) Subscribe() (<-chan types.MarketMakerEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan types.MarketMakerEvent, b.cfg.ChannelCapacity)
	id := b.nextSubID
	b.nextSubID++
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			close(existing)
			delete(b.subscribers, id)
		}
	}
	return ch, unsubscribe
}

// SubscriberCount reports the number of live subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Broadcast assigns the next sequence number, appends to history, and
// delivers to every subscriber whose channel has room; subscribers whose
// buffer is full are skipped rather than blocking the publisher (they
// must reconcile from GetReconnectionHistory). Returns the number of
// subscribers the event was delivered to.
func (b *Broadcaster) Broadcast(evt types.MarketMakerEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	evt.Sequence = b.nextSeq

	b.history = append(b.history, evt)
	if len(b.history) > b.cfg.HistorySize {
		b.history = b.history[len(b.history)-b.cfg.HistorySize:]
	}

	delivered := 0
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
			delivered++
		default:
		}
	}
	return delivered
}

// GetReconnectionHistory returns every retained event with sequence
// strictly greater than lastSeenSequence, oldest first, letting a
// reconnecting consumer recover idempotently.
func (b *Broadcaster) GetReconnectionHistory(lastSeenSequence uint64) []types.MarketMakerEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]types.MarketMakerEvent, 0)
	for _, evt := range b.history {
		if evt.Sequence > lastSeenSequence {
			out = append(out, evt)
		}
	}
	return out
}
