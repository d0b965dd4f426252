package onetime

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// runStoreConformance exercises the Store contract shared by every backend.
// Redis uses the wall clock for key expiry, so now must be near time.Now().
func runStoreConformance(t *testing.T, s Store) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("unknown", func(t *testing.T) {
		ok, err := s.Validate(ctx, "never-created", now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("single use", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, "email-01HKEY-123456", now.Add(time.Hour)))

		ok, err := s.Validate(ctx, "email-01HKEY-123456", now)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Validate(ctx, "email-01HKEY-123456", now)
		require.NoError(t, err)
		require.False(t, ok, "second validation must fail")
	})

	t.Run("expired", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, "password-01HKEY-654321", now.Add(time.Hour)))

		ok, err := s.Validate(ctx, "password-01HKEY-654321", now.Add(time.Hour))
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("recreate replaces", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, "email-01HKEY-111111", now.Add(time.Hour)))
		ok, err := s.Validate(ctx, "email-01HKEY-111111", now)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, s.Create(ctx, "email-01HKEY-111111", now.Add(2*time.Hour)))
		ok, err = s.Validate(ctx, "email-01HKEY-111111", now)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("concurrent consumers", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, "email-01HKEY-222222", now.Add(time.Hour)))

		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.Validate(ctx, "email-01HKEY-222222", now)
				if err == nil && ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), wins.Load())
	})

	t.Run("empty value", func(t *testing.T) {
		require.ErrorIs(t, s.Create(ctx, " ", now.Add(time.Hour)), ErrInvalidInput)
		_, err := s.Validate(ctx, "", now)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestMemoryStore_Conformance(t *testing.T) {
	runStoreConformance(t, NewMemoryStore())
}

func TestMemoryStore_ExpiredTokenIsDroppedOnValidate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Create(ctx, "v", now))
	ok, err := s.Validate(ctx, "v", now)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, s.Len())
}
