// Package events carries "something changed" notifications from the core to
// whatever renders it. Publishers never import subscribers.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Kind says which part of the state changed
type Kind int

const (
	TabsChanged Kind = iota
	RequestChanged
	ResponseChanged
	HistoryChanged
	CollectionsChanged
)

func (k Kind) String() string {
	switch k {
	case TabsChanged:
		return "tabs"
	case RequestChanged:
		return "request"
	case ResponseChanged:
		return "response"
	case HistoryChanged:
		return "history"
	case CollectionsChanged:
		return "collections"
	default:
		return "unknown"
	}
}

// Event describes one mutation. TabID is set for tab-scoped kinds,
// ID for the history entry or collection concerned, when there is one.
type Event struct {
	Kind  Kind
	TabID int
	ID    uuid.UUID
}

// Publisher is what the core depends on
type Publisher interface {
	Publish(Event)
}

// Discard drops every event
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Bus delivers each event synchronously to every subscriber, in
// subscription order, on the publishing goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

// NewBus returns an empty bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish calls every subscriber. Subscribers may subscribe or unsubscribe
// from inside the callback; the change applies to the next event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}
