package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const presenceTTL = 90 * time.Second

// Presence mirrors who is online into Redis, so other instances and the API
// can answer presence queries without holding a socket.
type Presence struct {
	client *redis.Client
}

func NewPresence(client *redis.Client) *Presence {
	return &Presence{client: client}
}

func presenceKey(userID uuid.UUID) string {
	return fmt.Sprintf("presence:user:%s", userID)
}

// Connect records one more live connection for the user and returns the new
// connection count.
func (p *Presence) Connect(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := presenceKey(userID)

	pipe := p.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record presence: %w", err)
	}
	return incr.Val(), nil
}

// Disconnect drops one connection and returns how many remain. The key is
// removed once the count reaches zero.
func (p *Presence) Disconnect(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := presenceKey(userID)

	remaining, err := p.client.Decr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to update presence: %w", err)
	}
	if remaining <= 0 {
		p.client.Del(ctx, key)
		return 0, nil
	}
	return remaining, nil
}

// Refresh extends the TTL while the connection's heartbeat is healthy.
func (p *Presence) Refresh(ctx context.Context, userID uuid.UUID) error {
	return p.client.Expire(ctx, presenceKey(userID), presenceTTL).Err()
}

// IsOnline reports whether the user has at least one live connection
// anywhere.
func (p *Presence) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	count, err := p.client.Get(ctx, presenceKey(userID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read presence: %w", err)
	}
	return count > 0, nil
}
