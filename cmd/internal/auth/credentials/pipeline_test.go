package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"warden/cmd/identity"
	"warden/cmd/security/password"
)

func newPipeline(t *testing.T, iterations int) *Pipeline[*identity.User] {
	t.Helper()

	chain, err := DefaultChain(password.DefaultConfig().Policy, identity.UserCapabilities, (*identity.User).LoginEmail)
	require.NoError(t, err)
	p, err := NewPipeline(chain, password.NewPBKDF2Hasher(password.PBKDF2Params{Iterations: iterations}))
	require.NoError(t, err)
	return p
}

func TestPipeline_SetPasswordHash_AssignsOnSuccess(t *testing.T) {
	p := newPipeline(t, 1_000)
	rec := record(t, "a@b.com")

	f, err := p.SetPasswordHash(context.Background(), rec, "longenough1")
	require.NoError(t, err)
	require.Nil(t, f)
	require.NotEmpty(t, rec.PasswordHash)

	res, err := p.ValidatePassword(rec, "longenough1")
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.False(t, res.UpdateHash)

	res, err = p.ValidatePassword(rec, "longenough2")
	require.NoError(t, err)
	require.False(t, res.Valid)
}

func TestPipeline_SetPasswordHash_LeavesRecordOnFailure(t *testing.T) {
	p := newPipeline(t, 1_000)
	rec := record(t, "a@b.com")
	rec.PasswordHash = "previous"

	f, err := p.SetPasswordHash(context.Background(), rec, "short")
	require.NoError(t, err)
	require.NotNil(t, f)
	require.Equal(t, "previous", rec.PasswordHash)
}

func TestPipeline_RehashSignalAfterIterationIncrease(t *testing.T) {
	rec := record(t, "a@b.com")
	_, err := newPipeline(t, 1_000).SetPasswordHash(context.Background(), rec, "longenough1")
	require.NoError(t, err)

	res, err := newPipeline(t, 5_000).ValidatePassword(rec, "longenough1")
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.True(t, res.UpdateHash)
}

func TestPipeline_Preconditions(t *testing.T) {
	p := newPipeline(t, 1_000)

	_, err := p.Hash("   ")
	require.True(t, identity.IsInvalidInput(err))

	_, err = p.ValidatePassword(record(t, ""), "anything")
	require.True(t, identity.IsInvalidInput(err))

	_, err = NewPipeline[*identity.User](nil, nil)
	require.Error(t, err)
}
