package model

import "time"

const (
	AccountEventRegistered      = "user.registered"
	AccountEventPasswordChanged = "user.password_changed"
	AccountEventDeleted         = "user.deleted"
)

// AccountEvent is published to the broker after a user lifecycle change commits.
type AccountEvent struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
