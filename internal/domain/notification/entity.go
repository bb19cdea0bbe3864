package notification

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeFollowRequest   Type = "follow_request"   // Someone requested to follow you
	TypeRequestAccepted Type = "request_accepted" // Your follow request was accepted
)

// Notification represents a stored user notification. UserID is the
// recipient's opaque uid.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Type      Type            `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Body      sql.NullString  `db:"body" json:"body,omitempty"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NotificationData links a notification back to the relation transition
// that produced it.
type NotificationData struct {
	ActorID string `json:"actor_id,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// SetData encodes data to JSON
func (n *Notification) SetData(data *NotificationData) {
	if data != nil {
		n.Data, _ = json.Marshal(data)
	}
}

// DeviceToken is one push-capable device registration for a user.
type DeviceToken struct {
	Token     string    `db:"token" json:"token"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
