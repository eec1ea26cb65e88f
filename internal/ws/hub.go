// Package ws provides the WebSocket gateway that streams auction events
// to connected observers.
package ws

import (
	"sync"

	"rental-auction/internal/broadcast"
	"rental-auction/utils"
)

// Hub maintains the set of active WebSocket clients keyed by the auction
// topics they subscribe to. It implements broadcast.Publisher, so the
// auction core can stream events to connected observers without knowing
// about WebSocket at all.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Client]struct{}),
	}
}

// Subscribe registers the client for the given topics.
func (h *Hub) Subscribe(client *Client, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		subs, ok := h.topics[topic]
		if !ok {
			subs = make(map[*Client]struct{})
			h.topics[topic] = subs
		}
		subs[client] = struct{}{}
	}
}

// Unsubscribe removes the client from all topics and closes its send
// channel.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(client)
}

// drop removes the client under an already-held write lock.
func (h *Hub) drop(client *Client) {
	removed := false
	for topic, subs := range h.topics {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			removed = true
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	if removed {
		close(client.send)
	}
}

// Publish sends the event to every client subscribed to the topic. A
// client whose send buffer is full is dropped; it will reconnect and
// receive a fresh snapshot.
func (h *Hub) Publish(topic string, event broadcast.Event) error {
	data, err := event.JSON()
	if err != nil {
		utils.Error("ws: failed to encode event", map[string]any{
			"topic": topic,
			"error": err.Error(),
		})
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.topics[topic] {
		select {
		case client.send <- data:
		default:
			h.drop(client)
		}
	}
	return nil
}

// SubscriberCount returns the number of clients subscribed to a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
