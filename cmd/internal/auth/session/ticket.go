package session

import "time"

// Properties are transport-level attributes of a session.
type Properties struct {
	IssuedAt     time.Time
	ExpiresAt    time.Time
	AllowRefresh bool
	// Persistent marks a remember-me session. Transports use it to decide
	// between a session cookie and one with an explicit lifetime.
	Persistent bool
}

// Ticket is the claim set carried between requests.
type Ticket struct {
	UserKey       string
	SecurityStamp string
	ValidatedAt   time.Time
	Properties    Properties
}

func (t *Ticket) complete() bool {
	return t.UserKey != "" && t.SecurityStamp != "" && !t.ValidatedAt.IsZero()
}

func (t *Ticket) expired(now time.Time) bool {
	return !t.Properties.ExpiresAt.IsZero() && !now.Before(t.Properties.ExpiresAt)
}
