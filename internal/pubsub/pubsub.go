package pubsub

import (
	"sync"
	"time"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
)

// Board event types. Every event tells viewers the board changed and should be re-fetched.
const (
	EventBoardLoaded    = "board:load"
	EventBoardRefreshed = "board:refresh"
	EventBoardSorted    = "board:sort"
	EventBoardFiltered  = "board:filter"
	EventPlayerToggled  = "board:toggle"
	EventDocumentSaved  = "document:saved"
	EventSyncCompleted  = "sync:complete"
)

// Event is a board change notification
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

// NewEvent stamps an event with the current time
func NewEvent(eventType string, payload map[string]any) Event {
	return Event{Type: eventType, Payload: payload, At: time.Now().UTC()}
}

// Broker is what board code publishes to and the SSE handler reads from
type Broker interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// Upstream is a broker that fans events out beyond this process (NATS)
type Upstream interface {
	Broker
	Close()
}

// fanout delivers events to buffered local channels without blocking publishers
type fanout struct {
	mu     sync.RWMutex
	subs   []chan Event
	buffer int
}

func newFanout(buffer int) *fanout {
	return &fanout{subs: []chan Event{}, buffer: buffer}
}

func (f *fanout) add() chan Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, f.buffer)
	f.subs = append(f.subs, ch)
	logger.Debug("pubsub: subscriber added", "total", len(f.subs))
	return ch
}

func (f *fanout) remove(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sub := range f.subs {
		if sub == ch {
			close(ch)
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func (f *fanout) broadcast(event Event) {
	// Sends never block, so holding the read lock keeps closeAll from racing them.
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ch := range f.subs {
		select {
		case ch <- event:
		default:
			logger.Warn("pubsub: dropping event for slow subscriber", "type", event.Type)
		}
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}

func (f *fanout) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// PubSub is the in-process broker. With an upstream, publishes go out through
// the upstream and come back to local subscribers from it.
type PubSub struct {
	local    *fanout
	upstream Upstream
}

// New creates a local-only PubSub
func New() *PubSub {
	return &PubSub{local: newFanout(10)}
}

// NewWithUpstream creates a PubSub bridged to an upstream broker
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{local: newFanout(10), upstream: upstream}

	ch := upstream.Subscribe()
	go func() {
		for event := range ch {
			ps.local.broadcast(event)
		}
		logger.Debug("pubsub: upstream channel closed")
	}()

	return ps
}

// Subscribe returns a channel receiving every subsequent event
func (ps *PubSub) Subscribe() chan Event {
	return ps.local.add()
}

// Unsubscribe removes and closes a subscriber channel
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.local.remove(ch)
}

// Publish sends an event to subscribers, via the upstream when one is set
func (ps *PubSub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	logger.Debug("pubsub: publish", "type", event.Type, "upstream", ps.upstream != nil)
	if ps.upstream != nil {
		ps.upstream.Publish(event)
		return
	}
	ps.local.broadcast(event)
}

// SubscriberCount reports the number of local subscribers
func (ps *PubSub) SubscriberCount() int {
	return ps.local.count()
}

// Close releases local subscribers and the upstream
func (ps *PubSub) Close() {
	if ps.upstream != nil {
		ps.upstream.Close()
	}
	ps.local.closeAll()
}
