package lockout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"warden/cmd/identity"
	"warden/cmd/internal/clock"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTracker(t *testing.T, store Store) (*Tracker, *clock.Manual) {
	t.Helper()
	c := clock.NewManual(t0)
	tr, err := NewTracker(DefaultConfig(), store, WithClock(c))
	require.NoError(t, err)
	return tr, c
}

func TestNewTracker_RejectsBadPolicy(t *testing.T) {
	_, err := NewTracker(Config{Window: time.Minute, MaxAttempts: 1}, NewMemoryStore())
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewTracker(Config{Window: 0, MaxAttempts: 5}, NewMemoryStore())
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewTracker(DefaultConfig(), nil)
	require.Error(t, err)
}

func TestIsLockedOut_FirstCallCreatesState(t *testing.T) {
	store := NewMemoryStore()
	tr, _ := newTracker(t, store)
	ctx := context.Background()

	locked, err := tr.IsLockedOut(ctx, "A@B.COM")
	require.NoError(t, err)
	require.False(t, locked)

	st, err := store.Get(ctx, "A@B.COM")
	require.NoError(t, err)
	require.Equal(t, 1, st.FailedAttempts)
	require.Nil(t, st.Expiration)
	require.True(t, st.LastModified.Equal(t0))
}

func TestIsLockedOut_LocksOnMaxAttemptsAndHoldsForWindow(t *testing.T) {
	store := NewMemoryStore()
	tr, c := newTracker(t, store)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		locked, err := tr.IsLockedOut(ctx, "k")
		require.NoError(t, err)
		require.False(t, locked, "attempt %d", i)
		c.Advance(time.Second)
	}

	lockedAt := c.Now()
	locked, err := tr.IsLockedOut(ctx, "k")
	require.NoError(t, err)
	require.True(t, locked, "5th attempt locks")

	st, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 5, st.FailedAttempts)
	require.NotNil(t, st.Expiration)
	require.True(t, st.Expiration.Equal(lockedAt.Add(10*time.Minute)))

	// Still locked right up to T+W, without counting further attempts.
	c.Set(lockedAt.Add(10*time.Minute - time.Nanosecond))
	locked, err = tr.IsLockedOut(ctx, "k")
	require.NoError(t, err)
	require.True(t, locked)

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, st, again)

	// At T+W the next check resets to a fresh counter.
	c.Set(lockedAt.Add(10 * time.Minute))
	locked, err = tr.IsLockedOut(ctx, "k")
	require.NoError(t, err)
	require.False(t, locked)

	st, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 1, st.FailedAttempts)
	require.Nil(t, st.Expiration)
}

func TestIsLockedOut_StaleWindowResets(t *testing.T) {
	store := NewMemoryStore()
	tr, c := newTracker(t, store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := tr.IsLockedOut(ctx, "k")
		require.NoError(t, err)
	}

	// Exactly W after the last failure counts as stale.
	c.Advance(10 * time.Minute)
	locked, err := tr.IsLockedOut(ctx, "k")
	require.NoError(t, err)
	require.False(t, locked)

	st, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 1, st.FailedAttempts)
}

func TestIsLockedOut_FailuresSlideTheWindow(t *testing.T) {
	tr, c := newTracker(t, NewMemoryStore())
	ctx := context.Background()

	// Five failures spaced 9 minutes apart span 36 minutes but still lock,
	// because every failure re-anchors the window.
	var locked bool
	for i := 0; i < 5; i++ {
		var err error
		locked, err = tr.IsLockedOut(ctx, "k")
		require.NoError(t, err)
		c.Advance(9 * time.Minute)
	}
	require.True(t, locked)
}

func TestReset_DeletesState(t *testing.T) {
	store := NewMemoryStore()
	tr, _ := newTracker(t, store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tr.IsLockedOut(ctx, "k")
		require.NoError(t, err)
	}
	require.NoError(t, tr.Reset(ctx, "k"))

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	// Reset on a missing key is fine.
	require.NoError(t, tr.Reset(ctx, "never-seen"))
}

func TestIsLockedOut_EmptyKeyIsInvalid(t *testing.T) {
	tr, _ := newTracker(t, NewMemoryStore())

	_, err := tr.IsLockedOut(context.Background(), "  ")
	require.True(t, identity.IsInvalidInput(err))
	require.True(t, identity.IsInvalidInput(tr.Reset(context.Background(), "")))
}

type racingStore struct {
	*MemoryStore
	injected bool
}

// Create simulates a concurrent request inserting the same key first.
func (r *racingStore) Create(ctx context.Context, s *State) error {
	if !r.injected {
		r.injected = true
		_ = r.MemoryStore.Create(ctx, &State{Key: s.Key, LastModified: s.LastModified, FailedAttempts: 3})
		return ErrConflict
	}
	return r.MemoryStore.Create(ctx, s)
}

func TestIsLockedOut_CreateConflictFallsBackToUpdate(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore()}
	tr, _ := newTracker(t, store)
	ctx := context.Background()

	locked, err := tr.IsLockedOut(ctx, "k")
	require.NoError(t, err)
	require.False(t, locked)

	st, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 1, st.FailedAttempts, "last writer wins")
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Get(context.Context, string) (*State, error) {
	return nil, errors.New("store down")
}

func TestIsLockedOut_PropagatesStoreErrors(t *testing.T) {
	tr, _ := newTracker(t, &failingStore{})

	_, err := tr.IsLockedOut(context.Background(), "k")
	require.ErrorContains(t, err, "store down")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("WARDEN_LOCKOUT_WINDOW", "15m")
	t.Setenv("WARDEN_LOCKOUT_MAX_ATTEMPTS", "3")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, Config{Window: 15 * time.Minute, MaxAttempts: 3}, cfg)

	t.Setenv("WARDEN_LOCKOUT_MAX_ATTEMPTS", "1")
	_, err = LoadConfigFromEnv()
	require.ErrorIs(t, err, ErrConfig)
}
