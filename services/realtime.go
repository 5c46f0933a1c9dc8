package services

import (
	"fmt"
	"sync"
)

// Event is one realtime payload pushed to subscribed clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// subscriberBuffer bounds how far a slow consumer may lag before events are
// dropped. Delivery is at-most-once and best-effort; the unread-count polling
// endpoint is the fallback for missed events.
const subscriberBuffer = 16

// Hub is the in-process realtime notifier. Clients subscribe to a topic
// (an agency inbox or a conversation) and receive row-change events until
// they unsubscribe or the publisher drops them.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// AgencyTopic is the topic for an agency's notification inbox
func AgencyTopic(agencyID uint) string {
	return fmt.Sprintf("agency:%d", agencyID)
}

// ConversationTopic is the topic for a conversation's message stream
func ConversationTopic(conversationID uint) string {
	return fmt.Sprintf("conversation:%d", conversationID)
}

// Subscribe registers a consumer on a topic. The returned cancel func is
// idempotent and releases the subscription slot; it must be called on
// consumer shutdown.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan Event]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[topic]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, topic)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every current subscriber of the topic.
// The send never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[topic] {
		select {
		case ch <- event:
		default:
			// slow consumer, drop
		}
	}
}

// SubscriberCount reports how many consumers a topic currently has
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

var hubInstance *Hub

// InitHub creates the process-wide hub. Called once at startup.
func InitHub() *Hub {
	hubInstance = NewHub()
	return hubInstance
}

// GetHub returns the process-wide hub
func GetHub() *Hub {
	return hubInstance
}

// SetHub sets the hub instance (primarily for testing)
func SetHub(h *Hub) {
	hubInstance = h
}
