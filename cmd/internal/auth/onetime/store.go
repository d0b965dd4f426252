// Package onetime stores single-use, expiring tokens.
//
// Stores never keep the plain token value: every value is hashed with a
// token.Hasher before it touches storage. A successful Validate consumes the
// token, so a second Validate for the same value returns false.
package onetime

import (
	"context"
	"errors"
	"strings"
	"time"

	"warden/cmd/security/token"
)

// ErrInvalidInput is returned for an empty token value.
var ErrInvalidInput = errors.New("onetime: invalid input")

// Store is the single-use token boundary.
//
// Contract:
//   - Create registers value until expiresAt. Re-creating the same value
//     replaces the previous registration.
//   - Validate returns true at most once per Create, and only while now is
//     before expiresAt. Expired, consumed and unknown values return false.
type Store interface {
	Create(ctx context.Context, value string, expiresAt time.Time) error
	Validate(ctx context.Context, value string, now time.Time) (bool, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	hasher token.Hasher
}

// WithHasher sets the hasher applied to values before storage.
func WithHasher(h token.Hasher) Option {
	return func(o *options) { o.hasher = h }
}

func buildOptions(opts []Option) options {
	o := options{hasher: token.NewHasher(nil)}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o options) hash(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", ErrInvalidInput
	}
	return o.hasher.Hex(value), nil
}
