package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the wire envelope for everything pushed to clients.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

// Room names.
func UserRoom(userID uuid.UUID) string { return "user:" + userID.String() }
func TaskRoom(taskID uuid.UUID) string { return "task:" + taskID.String() }

// Hub tracks named rooms and fans events out to their members. A client may
// sit in any number of rooms; membership in one room does not affect another.
type Hub struct {
	logger *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[string]*Client
	// rooms each session has joined, for cheap disconnect cleanup
	sessions map[string]map[string]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:   logger,
		rooms:    make(map[string]map[string]*Client),
		sessions: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Join(room string, client *Client) {
	if client == nil || client.SessionID == "" {
		return
	}

	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[client.SessionID] = client

	joined, ok := h.sessions[client.SessionID]
	if !ok {
		joined = make(map[string]struct{})
		h.sessions[client.SessionID] = joined
	}
	joined[room] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("room joined",
		zap.String("room", room),
		zap.String("session_id", client.SessionID))
}

func (h *Hub) Leave(room, sessionID string) {
	h.mu.Lock()
	h.leaveLocked(room, sessionID)
	h.mu.Unlock()
}

// Disconnect removes the session from every room and signals its shutdown.
// Removal happens before Close so broadcasters never race a closing client.
func (h *Hub) Disconnect(client *Client) {
	if client == nil {
		return
	}

	h.mu.Lock()
	for room := range h.sessions[client.SessionID] {
		h.leaveLocked(room, client.SessionID)
	}
	delete(h.sessions, client.SessionID)
	h.mu.Unlock()

	client.Close()
}

func (h *Hub) leaveLocked(room, sessionID string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	if joined, ok := h.sessions[sessionID]; ok {
		delete(joined, room)
	}
}

// Broadcast delivers an event to every member of a room. It never blocks: a
// full queue or a shutting-down client loses the event.
func (h *Hub) Broadcast(room string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[room] {
		h.offer(client, event, room)
	}
}

// BroadcastAll delivers an event to every connected session once.
func (h *Hub) BroadcastAll(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	for room, members := range h.rooms {
		for id, client := range members {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			h.offer(client, event, room)
		}
	}
}

// UserConnections counts live sessions in a user's room.
func (h *Hub) UserConnections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[UserRoom(userID)])
}

func (h *Hub) offer(client *Client, event Event, room string) {
	select {
	case <-client.Done():
		return
	default:
	}

	select {
	case client.Send <- event:
	default:
		// Drop rather than block the whole room.
		h.logger.Warn("event dropped",
			zap.String("room", room),
			zap.String("session_id", client.SessionID),
			zap.String("type", event.Type))
	}
}
