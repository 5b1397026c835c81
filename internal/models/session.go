package models

import "time"

// Session is a server-side login. The cookie only carries a signed reference
// to its ID; deleting the row logs the browser out.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"` // nil when sessions do not expire
	CreatedAt time.Time  `json:"createdAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
