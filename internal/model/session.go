package model

import "time"

// Session is the server side half of a login. The cookie carries a signed token
// referencing the session ID; deleting the row revokes the token.
type Session struct {
	ID        string    `db:"id"`
	UserID    int       `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Alive reports whether the session has not yet expired at t
func (s *Session) Alive(t time.Time) bool {
	return s != nil && t.Before(s.ExpiresAt)
}
