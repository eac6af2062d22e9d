package ws

import (
	"sync"
)

// TopicLobby — общий топик со списком открытых комнат.
const TopicLobby = "lobby"

func RoomTopic(roomID string) string { return "room:" + roomID }

type Conn interface {
	Send(msg Message) error
	Close() error
	UserID() string
	Topic() string
}

type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[Conn]struct{} // topic -> set of connections
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ts, ok := h.topics[c.Topic()]
	if !ok {
		ts = make(map[Conn]struct{})
		h.topics[c.Topic()] = ts
	}
	ts[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ts, ok := h.topics[c.Topic()]; ok {
		delete(ts, c)
		if len(ts) == 0 {
			delete(h.topics, c.Topic())
		}
	}
}

func (h *Hub) Broadcast(topic string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if ts, ok := h.topics[topic]; ok {
		for c := range ts {
			_ = c.Send(msg) // best-effort
		}
	}
}

func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}
