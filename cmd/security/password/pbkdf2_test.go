package password

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPBKDF2_RoundTrip(t *testing.T) {
	h := NewPBKDF2Hasher(PBKDF2Params{Iterations: 1_000})

	for _, pw := range []string{"longenough1", "x", "пароль-с-юникодом", " spaced out "} {
		enc, err := h.Hash(pw)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(enc, "1000."), "format: %s", enc)

		res := h.Verify(enc, pw)
		require.True(t, res.Valid, "password %q", pw)
		require.False(t, res.UpdateHash)

		require.False(t, h.Verify(enc, pw+"!").Valid)
	}
}

func TestPBKDF2_PayloadLayout(t *testing.T) {
	h := NewPBKDF2Hasher(PBKDF2Params{Iterations: 1_000})

	enc, err := h.Hash("longenough1")
	require.NoError(t, err)

	_, payload, ok := strings.Cut(enc, ".")
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	require.Len(t, raw, 48)
}

func TestPBKDF2_SaltIsRandom(t *testing.T) {
	h := NewPBKDF2Hasher(PBKDF2Params{Iterations: 1_000})

	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestPBKDF2_UpdateHashWhenIterationsIncrease(t *testing.T) {
	old := NewPBKDF2Hasher(PBKDF2Params{Iterations: 1_000})
	enc, err := old.Hash("longenough1")
	require.NoError(t, err)

	stronger := NewPBKDF2Hasher(PBKDF2Params{Iterations: 2_000})
	res := stronger.Verify(enc, "longenough1")
	require.True(t, res.Valid)
	require.True(t, res.UpdateHash)

	// Wrong password never asks for an update.
	res = stronger.Verify(enc, "wrong")
	require.False(t, res.Valid)
	require.False(t, res.UpdateHash)

	// Fewer configured iterations than stored is not an update.
	weaker := NewPBKDF2Hasher(PBKDF2Params{Iterations: 500})
	res = weaker.Verify(enc, "longenough1")
	require.True(t, res.Valid)
	require.False(t, res.UpdateHash)
}

func TestPBKDF2_MalformedHashIsInvalidNotError(t *testing.T) {
	h := NewPBKDF2Hasher(PBKDF2Params{Iterations: 1_000})
	good, err := h.Hash("longenough1")
	require.NoError(t, err)
	_, payload, _ := strings.Cut(good, ".")

	cases := map[string]string{
		"empty":            "",
		"no separator":     "1000" + payload,
		"non numeric":      "abc." + payload,
		"negative":         "-1000." + payload,
		"zero iterations":  "0." + payload,
		"huge iterations":  "99999999999." + payload,
		"bad base64":       "1000.!!!not-base64!!!",
		"short payload":    "1000." + base64.StdEncoding.EncodeToString([]byte("short")),
		"missing payload":  "1000.",
		"argon2id payload": "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5a2V5",
	}
	for name, enc := range cases {
		t.Run(name, func(t *testing.T) {
			res := h.Verify(enc, "longenough1")
			require.False(t, res.Valid)
			require.False(t, res.UpdateHash)
		})
	}
}

func TestPBKDF2_RejectsEmptyPassword(t *testing.T) {
	h := NewPBKDF2Hasher(PBKDF2Params{Iterations: 1_000})

	_, err := h.Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)
	_, err = h.Hash("   \t")
	require.ErrorIs(t, err, ErrEmptyPassword)
}
