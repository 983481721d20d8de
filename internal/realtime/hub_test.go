package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func drain(c *Client) []Event {
	var events []Event
	for {
		select {
		case ev := <-c.Send:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	taskID := uuid.New()

	member := NewClient(uuid.New(), uuid.NewString(), 8)
	other := NewClient(uuid.New(), uuid.NewString(), 8)
	hub.Join(TaskRoom(taskID), member)
	hub.Join(TaskRoom(uuid.New()), other)

	hub.Broadcast(TaskRoom(taskID), NewEvent("task:updated", nil))

	got := drain(member)
	require.Len(t, got, 1)
	assert.Equal(t, "task:updated", got[0].Type)
	assert.Empty(t, drain(other))
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	room := UserRoom(uuid.New())

	slow := NewClient(uuid.New(), uuid.NewString(), 2)
	hub.Join(room, slow)

	for i := 0; i < 5; i++ {
		hub.Broadcast(room, NewEvent("task:created", nil))
	}

	// Overflow is dropped, not delivered late and never blocking.
	assert.Len(t, drain(slow), 2)
}

func TestBroadcastSkipsClosedClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	room := UserRoom(uuid.New())

	client := NewClient(uuid.New(), uuid.NewString(), 8)
	hub.Join(room, client)
	client.Close()

	hub.Broadcast(room, NewEvent("task:updated", nil))
	assert.Empty(t, drain(client))
}

func TestDisconnectRemovesFromAllRooms(t *testing.T) {
	hub := NewHub(zap.NewNop())
	userID := uuid.New()

	client := NewClient(userID, uuid.NewString(), 8)
	hub.Join(UserRoom(userID), client)
	taskRoom := TaskRoom(uuid.New())
	hub.Join(taskRoom, client)

	require.Equal(t, 1, hub.UserConnections(userID))

	hub.Disconnect(client)

	assert.Equal(t, 0, hub.UserConnections(userID))
	hub.Broadcast(taskRoom, NewEvent("task:updated", nil))
	assert.Empty(t, drain(client))

	select {
	case <-client.Done():
	default:
		t.Fatal("disconnect did not signal client shutdown")
	}
}

func TestLeaveOnlyAffectsOneRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	userID := uuid.New()
	taskRoom := TaskRoom(uuid.New())

	client := NewClient(userID, uuid.NewString(), 8)
	hub.Join(UserRoom(userID), client)
	hub.Join(taskRoom, client)

	hub.Leave(taskRoom, client.SessionID)

	hub.Broadcast(taskRoom, NewEvent("typing:start", nil))
	assert.Empty(t, drain(client))

	hub.Broadcast(UserRoom(userID), NewEvent("task:assigned", nil))
	assert.Len(t, drain(client), 1)
}

func TestBroadcastAllDeliversOncePerSession(t *testing.T) {
	hub := NewHub(zap.NewNop())
	userID := uuid.New()

	client := NewClient(userID, uuid.NewString(), 8)
	hub.Join(UserRoom(userID), client)
	hub.Join(TaskRoom(uuid.New()), client)
	hub.Join(TaskRoom(uuid.New()), client)

	hub.BroadcastAll(NewEvent("user:status", map[string]any{"status": "online"}))

	assert.Len(t, drain(client), 1)
}

func TestUserConnectionsCountsSessions(t *testing.T) {
	hub := NewHub(zap.NewNop())
	userID := uuid.New()

	first := NewClient(userID, uuid.NewString(), 8)
	second := NewClient(userID, uuid.NewString(), 8)
	hub.Join(UserRoom(userID), first)
	hub.Join(UserRoom(userID), second)

	assert.Equal(t, 2, hub.UserConnections(userID))

	hub.Disconnect(first)
	assert.Equal(t, 1, hub.UserConnections(userID))
}
