package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshSession is the durable record backing one refresh-token grant.
// The raw token string is the lookup key; it is never serialized outward.
type RefreshSession struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	Token      string    `json:"-" db:"token"`
	DeviceInfo string    `json:"deviceInfo,omitempty" db:"device_info"`
	IPAddress  string    `json:"ipAddress,omitempty" db:"ip_address"`
	IsRevoked  bool      `json:"-" db:"is_revoked"`
	ExpiresAt  time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Active reports whether the session may still be redeemed.
func (s *RefreshSession) Active(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}
