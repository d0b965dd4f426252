package verify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/onetime"
	"warden/cmd/internal/clock"
)

type recordingStore struct {
	*onetime.MemoryStore
	created map[string]time.Time
}

func (r *recordingStore) Create(ctx context.Context, value string, exp time.Time) error {
	r.created[value] = exp
	return r.MemoryStore.Create(ctx, value, exp)
}

func newService(t *testing.T) (*Service, *recordingStore, *clock.Manual) {
	t.Helper()
	store := &recordingStore{MemoryStore: onetime.NewMemoryStore(), created: map[string]time.Time{}}
	c := clock.NewManual(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	s, err := NewService(DefaultConfig(), store, WithClock(c))
	require.NoError(t, err)
	return s, store, c
}

func TestCreateCode_IdentityAndExpiry(t *testing.T) {
	s, store, c := newService(t)
	ctx := context.Background()

	email, err := s.CreateCode(ctx, PurposeEmail, "user-1")
	require.NoError(t, err)
	require.Equal(t, c.Now().Add(7*24*time.Hour), store.created["email-user-1-"+email.String()])

	pw, err := s.CreateCode(ctx, PurposePassword, "user-1")
	require.NoError(t, err)
	require.Equal(t, c.Now().Add(24*time.Hour), store.created["password-user-1-"+pw.String()])
}

func TestValidateCode_RoundTripAndMismatches(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()

	code, err := s.CreateCode(ctx, PurposeEmail, "user-1")
	require.NoError(t, err)

	other, err := NewCode((int(code.value)+1)%1_000_000, 6)
	require.NoError(t, err)

	for _, tc := range []struct {
		name    string
		purpose Purpose
		key     string
		code    Code
	}{
		{"wrong purpose", PurposePassword, "user-1", code},
		{"wrong key", PurposeEmail, "user-2", code},
		{"wrong code", PurposeEmail, "user-1", other},
	} {
		ok, err := s.ValidateCode(ctx, tc.purpose, tc.key, tc.code)
		require.NoError(t, err, tc.name)
		require.False(t, ok, tc.name)
	}

	ok, err := s.ValidateCode(ctx, PurposeEmail, "user-1", code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.ValidateCode(ctx, PurposeEmail, "user-1", code)
	require.NoError(t, err)
	require.False(t, ok, "codes are single use")
}

func TestValidateCode_Expired(t *testing.T) {
	s, _, c := newService(t)
	ctx := context.Background()

	code, err := s.CreateCode(ctx, PurposePassword, "user-1")
	require.NoError(t, err)

	c.Advance(24 * time.Hour)
	ok, err := s.ValidateCode(ctx, PurposePassword, "user-1", code)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestService_Preconditions(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()

	_, err := s.CreateCode(ctx, Purpose("sms"), "user-1")
	require.True(t, identity.IsInvalidInput(err))

	_, err = s.CreateCode(ctx, PurposeEmail, " ")
	require.True(t, identity.IsInvalidInput(err))

	_, err = s.ValidateCode(ctx, PurposeEmail, "user-1", Code{})
	require.True(t, identity.IsInvalidInput(err))

	_, err = NewService(Config{Digits: 3, EmailTTL: time.Hour, PasswordTTL: time.Hour}, onetime.NewMemoryStore())
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("WARDEN_CODE_DIGITS", "8")
	t.Setenv("WARDEN_CODE_EMAIL_TTL", "48h")

	cfg, err := ApplyEnv(DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Digits)
	require.Equal(t, 48*time.Hour, cfg.EmailTTL)
	require.Equal(t, 24*time.Hour, cfg.PasswordTTL)
}
