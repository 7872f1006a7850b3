package response

import (
	"time"

	"github.com/mcoot/roster/internal/services/auth"
)

// Login is the response for a successful login
type Login struct {
	Token       string    `json:"token"`
	ExpiresInMs int64     `json:"expiresInMs"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// LoginFromSession creates a Login response, with the remaining lifetime measured from now
func LoginFromSession(s *auth.Session, now time.Time) Login {
	return Login{
		Token:       s.Token,
		ExpiresInMs: s.ExpiresAt.Sub(now).Milliseconds(),
		ExpiresAt:   s.ExpiresAt,
	}
}

// Session describes the caller's current session without echoing the token
type Session struct {
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ExpiresInMs int64     `json:"expiresInMs"`
}

// SessionFromModel creates a Session response
func SessionFromModel(s *auth.Session, now time.Time) Session {
	return Session{
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
		ExpiresInMs: s.ExpiresAt.Sub(now).Milliseconds(),
	}
}

// Health is the response for the health endpoint
type Health struct {
	Status      string `json:"status"`
	Storage     string `json:"storage"`
	Subscribers int    `json:"subscribers"`
}
