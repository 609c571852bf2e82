package realtime

import (
	"sync"
	"time"
)

// Event is a newly stored chat message pushed to subscribed clients.
type Event struct {
	ID           string    `json:"id"`
	Conversation string    `json:"conversation"`
	SenderID     string    `json:"sender_id"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

// Hub fans newly inserted messages out to conversation subscribers.
// It is injected where needed; there is no package-level instance.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]bool),
	}
}

// Subscribe registers a listener for one conversation and returns the
// event channel plus a cleanup func. The channel is buffered so a slow
// client cannot stall Broadcast.
func (h *Hub) Subscribe(conversation string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)
	if h.subscribers[conversation] == nil {
		h.subscribers[conversation] = make(map[chan Event]bool)
	}
	h.subscribers[conversation][ch] = true

	cleanup := func() {
		h.unsubscribe(conversation, ch)
	}
	return ch, cleanup
}

func (h *Hub) unsubscribe(conversation string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscribers[conversation]; ok {
		if !subs[ch] {
			return
		}
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.subscribers, conversation)
		}
		close(ch)
	}
}

// Broadcast delivers an event to every subscriber of its conversation.
// Full subscriber buffers are skipped rather than blocked on.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[ev.Conversation] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports the current listener count for a conversation.
func (h *Hub) SubscriberCount(conversation string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[conversation])
}
