package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Client is one connected websocket session.
//
// Send is never closed by the server, so concurrent broadcasters cannot panic
// on it. Shutdown is signalled through done instead, and Close is idempotent.
type Client struct {
	SessionID string
	UserID    uuid.UUID
	Send      chan Event

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(userID uuid.UUID, sessionID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 64
	}
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		Send:      make(chan Event, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// Done is closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close signals the client goroutines to stop. It does not close Send.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
