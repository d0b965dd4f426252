// Package verify issues and checks short numeric codes bound to a purpose and
// a user key. Codes are persisted through a single-use token store; this
// package never delivers them.
package verify

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
)

// Purpose scopes a code to one flow.
type Purpose string

const (
	PurposeEmail    Purpose = "email"
	PurposePassword Purpose = "password"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	return p == PurposeEmail || p == PurposePassword
}

const (
	// MinDigits is the shortest code length accepted.
	MinDigits = 4
	// DefaultDigits is the policy default.
	DefaultDigits = 6
	maxDigits     = 9
)

// ErrInvalidCode is returned when constructing a code that violates the length rules.
var ErrInvalidCode = errors.New("verify: invalid code")

// Code is a non-negative numeric code rendered with a fixed number of digits.
type Code struct {
	value  uint32
	digits int
}

// NewCode builds a code of the given digit count. value must fit in digits.
func NewCode(value int, digits int) (Code, error) {
	if digits < MinDigits || digits > maxDigits {
		return Code{}, fmt.Errorf("%w: digits must be in [%d..%d]", ErrInvalidCode, MinDigits, maxDigits)
	}
	if value < 0 || value >= pow10(digits) {
		return Code{}, fmt.Errorf("%w: value out of range for %d digits", ErrInvalidCode, digits)
	}
	return Code{value: uint32(value), digits: digits}, nil // #nosec G115 -- bounded by pow10(maxDigits) above.
}

// ParseCode parses user input. Leading zeros are significant for the digit count.
func ParseCode(s string) (Code, error) {
	if len(s) < MinDigits || len(s) > maxDigits {
		return Code{}, ErrInvalidCode
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Code{}, ErrInvalidCode
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Code{}, ErrInvalidCode
	}
	return NewCode(n, len(s))
}

// GenerateCode returns a uniformly random code with digits digits.
func GenerateCode(digits int) (Code, error) {
	if digits < MinDigits || digits > maxDigits {
		return Code{}, fmt.Errorf("%w: digits must be in [%d..%d]", ErrInvalidCode, MinDigits, maxDigits)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(pow10(digits))))
	if err != nil {
		return Code{}, err
	}
	return NewCode(int(n.Int64()), digits)
}

// String renders the code zero-padded to its digit count.
func (c Code) String() string {
	return fmt.Sprintf("%0*d", c.digits, c.value)
}

// Digits returns the digit count.
func (c Code) Digits() int { return c.digits }

// IsZero reports an unset Code.
func (c Code) IsZero() bool { return c.digits == 0 }

func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}
