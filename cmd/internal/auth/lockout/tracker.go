package lockout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"warden/cmd/identity"
	"warden/cmd/internal/clock"
)

// Tracker implements the lockout state machine over a Store.
type Tracker struct {
	cfg   Config
	store Store
	clock clock.Clock
	log   *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the system clock.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the logger used for lock events.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// NewTracker validates cfg and returns a Tracker.
func NewTracker(cfg Config, store Store, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("lockout: nil store")
	}
	t := &Tracker{
		cfg:   cfg,
		store: store,
		clock: clock.System{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// Config returns the tracker policy.
func (t *Tracker) Config() Config { return t.cfg }

// IsLockedOut records an attempt for key and reports whether key is locked.
//
// Every call counts as an attempt unless the key is already locked; callers
// clear the state with Reset after a successful sign-in.
func (t *Tracker) IsLockedOut(ctx context.Context, key string) (bool, error) {
	const op = "lockout.IsLockedOut"

	key = strings.TrimSpace(key)
	if key == "" {
		return false, identity.Invalid(op, "missing key")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	now := t.clock.Now()

	st, err := t.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, t.create(ctx, &State{Key: key, LastModified: now, FailedAttempts: 1})
	}
	if err != nil {
		return false, fmt.Errorf("%s: load: %w", op, err)
	}

	if st.Expiration != nil {
		if st.Expiration.After(now) {
			return true, nil
		}
		// Ban served.
		return false, t.update(ctx, fresh(key, now))
	}

	if !st.LastModified.After(now.Add(-t.cfg.Window)) {
		// Stale window.
		return false, t.update(ctx, fresh(key, now))
	}

	st.FailedAttempts++
	st.LastModified = now
	if st.FailedAttempts >= t.cfg.MaxAttempts {
		exp := now.Add(t.cfg.Window)
		st.Expiration = &exp
		t.log.Warn("auth.lockout.locked", "attempts", st.FailedAttempts, "until", exp)
	}
	if err := t.update(ctx, st); err != nil {
		return false, err
	}
	return st.Expiration != nil, nil
}

// Reset removes any state for key. Missing state is not an error.
func (t *Tracker) Reset(ctx context.Context, key string) error {
	const op = "lockout.Reset"

	key = strings.TrimSpace(key)
	if key == "" {
		return identity.Invalid(op, "missing key")
	}
	if err := t.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func fresh(key string, now time.Time) *State {
	return &State{Key: key, LastModified: now, FailedAttempts: 1}
}

// create inserts st, falling back to update if a concurrent request won the insert.
func (t *Tracker) create(ctx context.Context, st *State) error {
	err := t.store.Create(ctx, st)
	if errors.Is(err, ErrConflict) {
		return t.update(ctx, st)
	}
	if err != nil {
		return fmt.Errorf("lockout: create: %w", err)
	}
	return nil
}

// update writes st, falling back to create if the state vanished meanwhile.
func (t *Tracker) update(ctx context.Context, st *State) error {
	err := t.store.Update(ctx, st)
	if errors.Is(err, ErrNotFound) {
		err = t.store.Create(ctx, st)
	}
	if err != nil {
		return fmt.Errorf("lockout: update: %w", err)
	}
	return nil
}
