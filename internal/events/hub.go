// Package events fans module state changes out to the browsers watching a
// sprint.
package events

import (
	"sync"
	"time"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
)

const (
	ModulesRegenerated = "modules.regenerated"
	ModuleCompleted    = "module.completed"
	ModuleFailed       = "module.failed"
	SprintUpdated      = "sprint.updated"
)

// Event is one change notification for a sprint.
type Event struct {
	Type     string             `json:"type"`
	SprintID string             `json:"sprintId"`
	Module   catalog.ModuleType `json:"moduleType,omitempty"`
	Progress *int               `json:"progress,omitempty"`
	Error    string             `json:"error,omitempty"`
	At       time.Time          `json:"at"`
}

// subscriberBuffer is how many events a slow subscriber may lag behind
// before new events are dropped for it.
const subscriberBuffer = 32

// Hub is an in-process pub/sub keyed by sprint id.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[chan Event]struct{}
	origins map[string]bool
	closed  bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel of the sprint's events and a func that ends the
// subscription and closes the channel.
func (h *Hub) Subscribe(sprintID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.subs[sprintID] == nil {
		h.subs[sprintID] = make(map[chan Event]struct{})
	}
	h.subs[sprintID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(sprintID, ch) })
	}
}

func (h *Hub) unsubscribe(sprintID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sprintID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, sprintID)
	}
}

// Publish delivers e to every subscriber of its sprint without blocking;
// subscribers with a full buffer miss the event. It returns the number of
// subscribers reached.
func (h *Hub) Publish(e Event) int {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for ch := range h.subs[e.SprintID] {
		select {
		case ch <- e:
			n++
		default:
		}
	}
	return n
}

// Subscribers counts the live subscriptions for a sprint.
func (h *Hub) Subscribers(sprintID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sprintID])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
	h.closed = true
}
