package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/config"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
	"github.com/LeoDhali007/TaskVerse/pkg/token"
)

const (
	maxFrameBytes   = 32 * 1024
	readIdleTimeout = 2 * time.Minute
	maxPingFailures = 3
	closeGrace      = time.Second
)

// Client-originated event types.
const (
	eventUserOnline  = "user:online"
	eventUserStatus  = "user:status"
	eventTypingStart = "typing:start"
	eventTypingStop  = "typing:stop"
	eventTaskJoin    = "task:join"
	eventTaskLeave   = "task:leave"
	eventError       = "error"
)

// Gateway upgrades HTTP requests to websocket sessions and runs the realtime
// loop for each. It listens on its own port next to the REST API.
type Gateway struct {
	logger   *zap.Logger
	hub      *Hub
	presence *Presence
	codec    *token.Codec
	users    repository.UserRepository
	tasks    repository.TaskRepository

	cfg            config.RealtimeConfig
	originPatterns []string
}

func NewGateway(
	logger *zap.Logger,
	hub *Hub,
	presence *Presence,
	codec *token.Codec,
	users repository.UserRepository,
	tasks repository.TaskRepository,
	cfg config.RealtimeConfig,
	allowedOrigins []string,
) *Gateway {
	return &Gateway{
		logger:         logger,
		hub:            hub,
		presence:       presence,
		codec:          codec,
		users:          users,
		tasks:          tasks,
		cfg:            cfg,
		originPatterns: originPatterns(allowedOrigins),
	}
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type taskRoomPayload struct {
	TaskID uuid.UUID `json:"taskId"`
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := g.authenticate(r)
	if err != nil {
		status := http.StatusForbidden
		if errors.Is(err, errNoCredential) {
			status = http.StatusUnauthorized
		}
		g.logger.Info("websocket rejected",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	conn.SetReadLimit(maxFrameBytes)

	client := NewClient(userID, uuid.NewString(), g.cfg.SendQueueSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	shutdown := func(code websocket.StatusCode, reason string) {
		g.hub.Disconnect(client)
		conn.Close(code, reason)
		cancel()
	}

	g.hub.Join(UserRoom(userID), client)
	g.announceOnline(ctx, userID)
	defer g.announceOffline(userID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case event := <-client.Send:
				if err := g.write(ctx, conn, event); err != nil {
					g.logger.Debug("websocket write failed",
						zap.String("session_id", client.SessionID),
						zap.Error(err))
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)
		g.heartbeat(ctx, conn, client, func() {
			shutdown(websocket.StatusGoingAway, "heartbeat failed")
		})
	}()

	g.readLoop(ctx, conn, client, shutdown)

	shutdown(websocket.StatusNormalClosure, "bye")
	<-writerDone

	select {
	case <-heartbeatDone:
	case <-time.After(closeGrace):
	}
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, client *Client, shutdown func(websocket.StatusCode, string)) {
	for {
		readCtx, readCancel := context.WithTimeout(ctx, readIdleTimeout)
		_, data, err := conn.Read(readCtx)
		readCancel()

		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, io.EOF) {
				shutdown(websocket.StatusNormalClosure, "peer closed")
			} else if ctx.Err() != nil {
				shutdown(websocket.StatusNormalClosure, "context done")
			} else {
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			g.sendError(client, "invalid JSON")
			continue
		}

		switch msg.Type {
		case eventUserOnline:
			// Client announces itself after connecting; presence is already
			// tracked server-side, so this is just an ack.
			g.hub.Broadcast(UserRoom(client.UserID), NewEvent(eventUserStatus, statusPayload(client.UserID, "online")))

		case eventTaskJoin:
			taskID, ok := g.taskPayload(client, msg.Data)
			if !ok {
				continue
			}
			if !g.mayWatchTask(ctx, client.UserID, taskID) {
				g.sendError(client, "task not found")
				continue
			}
			g.hub.Join(TaskRoom(taskID), client)

		case eventTaskLeave:
			if taskID, ok := g.taskPayload(client, msg.Data); ok {
				g.hub.Leave(TaskRoom(taskID), client.SessionID)
			}

		case eventTypingStart, eventTypingStop:
			taskID, ok := g.taskPayload(client, msg.Data)
			if !ok {
				continue
			}
			g.hub.Broadcast(TaskRoom(taskID), NewEvent(msg.Type, map[string]interface{}{
				"taskId": taskID,
				"userId": client.UserID,
			}))

		default:
			g.sendError(client, "unsupported event type: "+msg.Type)
		}
	}
}

func (g *Gateway) heartbeat(ctx context.Context, conn *websocket.Conn, client *Client, onFail func()) {
	ticker := time.NewTicker(g.cfg.HeartbeatInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, g.cfg.HeartbeatTimeout)
			err := conn.Ping(pingCtx)
			pingCancel()

			if err != nil {
				failures++
				if failures >= maxPingFailures {
					onFail()
					return
				}
				continue
			}
			failures = 0

			if err := g.presence.Refresh(ctx, client.UserID); err != nil {
				g.logger.Warn("presence refresh failed", zap.Error(err))
			}
		}
	}
}

var errNoCredential = errors.New("missing access token")

// authenticate resolves the connecting user from the ?token= query parameter
// or the Authorization header, and re-checks the account is still active.
func (g *Gateway) authenticate(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		header := r.Header.Get("Authorization")
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			raw = strings.TrimSpace(parts[1])
		}
	}
	if raw == "" {
		return uuid.Nil, errNoCredential
	}

	claims, err := g.codec.Verify(raw, token.PurposeAccess)
	if err != nil {
		return uuid.Nil, errors.New("invalid access token")
	}

	user, err := g.users.GetByID(r.Context(), claims.UserID)
	if err != nil || !user.IsActive {
		return uuid.Nil, errors.New("invalid access token")
	}
	return user.ID, nil
}

func (g *Gateway) write(ctx context.Context, conn *websocket.Conn, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, g.cfg.WriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

func (g *Gateway) announceOnline(ctx context.Context, userID uuid.UUID) {
	count, err := g.presence.Connect(ctx, userID)
	if err != nil {
		g.logger.Warn("presence connect failed", zap.Error(err))
		return
	}
	if count == 1 {
		g.hub.BroadcastAll(NewEvent(eventUserStatus, statusPayload(userID, "online")))
	}
}

func (g *Gateway) announceOffline(userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	remaining, err := g.presence.Disconnect(ctx, userID)
	if err != nil {
		g.logger.Warn("presence disconnect failed", zap.Error(err))
		return
	}
	if remaining == 0 {
		g.hub.BroadcastAll(NewEvent(eventUserStatus, statusPayload(userID, "offline")))
	}
}

func (g *Gateway) mayWatchTask(ctx context.Context, userID, taskID uuid.UUID) bool {
	task, err := g.tasks.GetByID(ctx, taskID)
	if err != nil {
		return false
	}
	return task.VisibleTo(userID)
}

func (g *Gateway) taskPayload(client *Client, data json.RawMessage) (uuid.UUID, bool) {
	var payload taskRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.TaskID == uuid.Nil {
		g.sendError(client, "taskId is required")
		return uuid.Nil, false
	}
	return payload.TaskID, true
}

func (g *Gateway) sendError(client *Client, message string) {
	event := NewEvent(eventError, map[string]string{"message": message})
	select {
	case client.Send <- event:
	default:
	}
}

func statusPayload(userID uuid.UUID, status string) map[string]interface{} {
	return map[string]interface{}{
		"userId":    userID,
		"status":    status,
		"timestamp": time.Now().UTC(),
	}
}

// originPatterns extracts host patterns for the websocket origin check from
// the configured CORS origins.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
