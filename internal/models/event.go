package models

import "time"

// TokenEvent - audit log transisi token.
// Event: create, approve, reject, start, complete, cancel.
type TokenEvent struct {
	ID          int64     `json:"id"`
	TokenID     int64     `json:"token_id"`
	Event       string    `json:"event"`
	ActorUserID int64     `json:"actor_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
