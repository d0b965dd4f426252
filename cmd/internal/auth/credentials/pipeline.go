package credentials

import (
	"context"
	"errors"
	"strings"

	"warden/cmd/identity"
	"warden/cmd/security/password"
)

// Pipeline combines a validator chain with a password hasher.
type Pipeline[R identity.PasswordRecord] struct {
	chain  *Chain[R]
	hasher password.Hasher
}

// NewPipeline returns a Pipeline. A nil chain accepts every password.
func NewPipeline[R identity.PasswordRecord](chain *Chain[R], hasher password.Hasher) (*Pipeline[R], error) {
	if hasher == nil {
		return nil, errors.New("credentials: nil hasher")
	}
	if chain == nil {
		chain = NewChain[R]()
	}
	return &Pipeline[R]{chain: chain, hasher: hasher}, nil
}

// Hash hashes pw. An empty or whitespace-only password is a caller bug.
func (p *Pipeline[R]) Hash(pw string) (string, error) {
	const op = "credentials.Hash"

	if strings.TrimSpace(pw) == "" {
		return "", identity.Invalid(op, "empty password")
	}
	return p.hasher.Hash(pw)
}

// SetPasswordHash validates pw and, when every validator passes, assigns its
// hash to rec. The record is not persisted.
func (p *Pipeline[R]) SetPasswordHash(ctx context.Context, rec R, pw string) (*identity.Failure, error) {
	f, err := p.chain.Validate(ctx, rec, pw)
	if err != nil || f != nil {
		return f, err
	}

	h, err := p.Hash(pw)
	if err != nil {
		return nil, err
	}
	rec.SetCredentialHash(h)
	return nil, nil
}

// ValidatePassword checks pw against the hash stored on rec.
// rec must already carry a hash.
func (p *Pipeline[R]) ValidatePassword(rec R, pw string) (password.VerifyResult, error) {
	const op = "credentials.ValidatePassword"

	stored := rec.CredentialHash()
	if stored == "" {
		return password.VerifyResult{}, identity.Invalid(op, "record has no password hash")
	}
	return p.hasher.Verify(stored, pw), nil
}

// Hasher exposes the underlying hasher (used for timing-equalising dummy checks).
func (p *Pipeline[R]) Hasher() password.Hasher { return p.hasher }
