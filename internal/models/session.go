package models

import "time"

// Session is one issued login session, keyed by its opaque token.
type Session struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// ExpiredAt reports whether the session is no longer valid at the given
// instant. Expiry is inclusive: a session whose ExpiresAt equals now is
// already expired.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
