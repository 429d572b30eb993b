package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
)

func init() {
	logger.Init()
}

func receive(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before an event arrived")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	ps := New()

	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()
	if ps.SubscriberCount() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", ps.SubscriberCount())
	}

	ps.Unsubscribe(ch1)
	if ps.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", ps.SubscriberCount())
	}
	if _, ok := <-ch1; ok {
		t.Error("unsubscribed channel should be closed")
	}

	// Unknown channels are ignored
	ps.Unsubscribe(make(chan Event))
	ps.Unsubscribe(ch2)
	if ps.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", ps.SubscriberCount())
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	ps := New()
	subs := []chan Event{ps.Subscribe(), ps.Subscribe(), ps.Subscribe()}

	ps.Publish(NewEvent(EventPlayerToggled, map[string]any{"player": "Justin Jefferson", "drafted": true}))

	for i, ch := range subs {
		ev := receive(t, ch)
		if ev.Type != EventPlayerToggled {
			t.Errorf("subscriber %d: type = %s", i, ev.Type)
		}
		if ev.Payload["player"] != "Justin Jefferson" {
			t.Errorf("subscriber %d: payload = %v", i, ev.Payload)
		}
	}
}

func TestPublishStampsTime(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	ps.Publish(Event{Type: EventBoardSorted})
	if ev := receive(t, ch); ev.At.IsZero() {
		t.Error("expected publish to stamp the event time")
	}
}

func TestPublishDropsWhenChannelFull(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	for i := 0; i < 25; i++ {
		ps.Publish(Event{Type: EventBoardFiltered})
	}
	if len(ch) != cap(ch) {
		t.Errorf("expected full buffer of %d, got %d", cap(ch), len(ch))
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	ps := New()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := ps.Subscribe()
			ps.Unsubscribe(ch)
		}()
		go func() {
			defer wg.Done()
			ps.Publish(Event{Type: EventBoardLoaded})
		}()
	}
	wg.Wait()

	if ps.SubscriberCount() != 0 {
		t.Errorf("expected no subscribers left, got %d", ps.SubscriberCount())
	}
}

// fakeUpstream echoes published events back to its subscribers
type fakeUpstream struct {
	local     *fanout
	mu        sync.Mutex
	published []Event
	closed    bool
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{local: newFanout(10)}
}

func (f *fakeUpstream) Publish(ev Event) {
	f.mu.Lock()
	f.published = append(f.published, ev)
	f.mu.Unlock()
	f.local.broadcast(ev)
}

func (f *fakeUpstream) Subscribe() chan Event    { return f.local.add() }
func (f *fakeUpstream) Unsubscribe(ch chan Event) { f.local.remove(ch) }

func (f *fakeUpstream) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.local.closeAll()
}

func TestUpstreamRoundTrip(t *testing.T) {
	up := newFakeUpstream()
	ps := NewWithUpstream(up)
	ch := ps.Subscribe()

	ps.Publish(NewEvent(EventBoardLoaded, nil))

	if ev := receive(t, ch); ev.Type != EventBoardLoaded {
		t.Errorf("type = %s", ev.Type)
	}

	up.mu.Lock()
	n := len(up.published)
	up.mu.Unlock()
	if n != 1 {
		t.Errorf("expected 1 upstream publish, got %d", n)
	}
}

func TestUpstreamEventsFromOtherInstances(t *testing.T) {
	up := newFakeUpstream()
	ps := NewWithUpstream(up)
	ch := ps.Subscribe()

	// Simulates another process publishing to the shared subject
	up.local.broadcast(NewEvent(EventDocumentSaved, map[string]any{"name": "adp"}))

	if ev := receive(t, ch); ev.Payload["name"] != "adp" {
		t.Errorf("payload = %v", ev.Payload)
	}
}

func TestCloseReleasesUpstream(t *testing.T) {
	up := newFakeUpstream()
	ps := NewWithUpstream(up)
	ch := ps.Subscribe()

	ps.Close()

	if !up.closed {
		t.Error("upstream should be closed")
	}
	if _, ok := <-ch; ok {
		t.Error("local subscriber should be closed")
	}
}
