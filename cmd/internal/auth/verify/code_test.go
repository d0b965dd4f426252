package verify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCode_Rules(t *testing.T) {
	c, err := NewCode(42, 6)
	require.NoError(t, err)
	require.Equal(t, "000042", c.String())
	require.Equal(t, 6, c.Digits())

	_, err = NewCode(123, 3)
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = NewCode(-1, 6)
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = NewCode(1_000_000, 6)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestParseCode(t *testing.T) {
	c, err := ParseCode("012345")
	require.NoError(t, err)
	require.Equal(t, "012345", c.String())

	for _, bad := range []string{"", "123", "12a456", "-12345", "1234567890"} {
		_, err := ParseCode(bad)
		require.ErrorIs(t, err, ErrInvalidCode, "input %q", bad)
	}
}

func TestGenerateCode_Shape(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, err := GenerateCode(DefaultDigits)
		require.NoError(t, err)
		require.Len(t, c.String(), 6)
	}

	_, err := GenerateCode(3)
	require.ErrorIs(t, err, ErrInvalidCode)
}
