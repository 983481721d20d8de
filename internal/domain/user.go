package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	FirstName    string      `json:"firstName,omitempty" db:"first_name"`
	LastName     string      `json:"lastName,omitempty" db:"last_name"`
	Avatar       string      `json:"avatar,omitempty" db:"avatar"`
	Bio          string      `json:"bio,omitempty" db:"bio"`
	Timezone     string      `json:"timezone" db:"timezone"`
	Preferences  Preferences `json:"preferences" db:"preferences"`
	IsActive     bool        `json:"isActive" db:"is_active"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
	LastLoginAt  *time.Time  `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

// Preferences is the per-user settings bag, stored as a single JSONB column.
type Preferences struct {
	Theme         string                  `json:"theme"`
	Notifications NotificationPreferences `json:"notifications"`
	DefaultView   string                  `json:"defaultView"`
}

type NotificationPreferences struct {
	Email           bool `json:"email"`
	Push            bool `json:"push"`
	TaskReminders   bool `json:"taskReminders"`
	TaskAssignments bool `json:"taskAssignments"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme: "system",
		Notifications: NotificationPreferences{
			Email:           true,
			Push:            true,
			TaskReminders:   true,
			TaskAssignments: true,
		},
		DefaultView: "list",
	}
}

func (p Preferences) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Preferences) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = DefaultPreferences()
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Preferences", src)
	}
}

// PublicUser is the shape other users may see: no email, no settings.
type PublicUser struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	FirstName string    `json:"firstName,omitempty" db:"first_name"`
	LastName  string    `json:"lastName,omitempty" db:"last_name"`
	Avatar    string    `json:"avatar,omitempty" db:"avatar"`
	Bio       string    `json:"bio,omitempty" db:"bio"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

// UserRef is the lightweight projection embedded in task responses.
type UserRef struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	FirstName string    `json:"firstName,omitempty" db:"first_name"`
	LastName  string    `json:"lastName,omitempty" db:"last_name"`
	Avatar    string    `json:"avatar,omitempty" db:"avatar"`
}
