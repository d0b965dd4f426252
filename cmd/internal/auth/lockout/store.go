package lockout

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when no state exists for a key.
	ErrNotFound = errors.New("lockout state not found")

	// ErrConflict is returned by Create when a state already exists for the key.
	ErrConflict = errors.New("lockout state already exists")
)

// State is the per-key failure record.
type State struct {
	Key            string
	LastModified   time.Time
	FailedAttempts int
	// Expiration is set only while the key is locked.
	Expiration *time.Time
}

// Locked reports whether s is locked at now.
func (s *State) Locked(now time.Time) bool {
	return s != nil && s.Expiration != nil && s.Expiration.After(now)
}

func (s *State) clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.Expiration != nil {
		e := *s.Expiration
		c.Expiration = &e
	}
	return &c
}

// Store persists lockout states. Implementations must not interpret the state.
type Store interface {
	Get(ctx context.Context, key string) (*State, error)
	Create(ctx context.Context, s *State) error
	Update(ctx context.Context, s *State) error
	Delete(ctx context.Context, key string) error
}
