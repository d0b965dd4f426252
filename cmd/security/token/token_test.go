package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasher_SHA256WithoutKey(t *testing.T) {
	h := NewHasher(nil)

	require.False(t, h.Keyed())
	require.Equal(t, HashSHA256Hex("email-01H-123456"), h.Hex("email-01H-123456"))
	require.Len(t, h.Hex("x"), 64)
}

func TestHasher_HMACWithKey(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	h := NewHasher(key)

	require.True(t, h.Keyed())
	require.Equal(t, HashHMACSHA256Hex("v", key), h.Hex("v"))
	require.NotEqual(t, HashSHA256Hex("v"), h.Hex("v"))
}

func TestHasherFromEnv(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	h, err := HasherFromEnv()
	require.NoError(t, err)
	require.False(t, h.Keyed())

	t.Setenv(HMACEnvKey, "short")
	_, err = HasherFromEnv()
	require.ErrorIs(t, err, ErrHMACKeyTooShort)

	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	h, err = HasherFromEnv()
	require.NoError(t, err)
	require.True(t, h.Keyed())
}

func TestEqualHex64(t *testing.T) {
	a := HashSHA256Hex("a")
	require.True(t, EqualHex64(a, HashSHA256Hex("a")))
	require.False(t, EqualHex64(a, HashSHA256Hex("b")))
	require.False(t, EqualHex64("abc", "abc"))
}
