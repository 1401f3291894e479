package entity

import "time"

// Session represents one authenticated browser context.
// The ID is handed to the client (sealed) inside the session cookie.
type Session struct {
	ID        string    `json:"id"`         // 32 random bytes, base64url
	UserID    string    `json:"user_id"`    // weak reference to User.ID
	CreatedAt time.Time `json:"created_at"` // Session creation time
	ExpiresAt time.Time `json:"expires_at"` // Absolute expiry, fixed at creation
}

// IsExpired reports whether the session has passed its expiration time at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
