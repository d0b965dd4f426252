package credentials

import (
	"context"
	"fmt"
	"strings"

	"warden/cmd/identity"
	"warden/cmd/security/password"
)

func policyFailure(err error) *identity.Failure {
	if err == nil {
		return nil
	}
	return identity.WeakPassword(err.Error())
}

// Length enforces the policy's min/max rune length.
func Length[R identity.PasswordRecord](p password.Policy) Validator[R] {
	return ValidatorFunc[R](func(_ context.Context, _ R, pw string) (*identity.Failure, error) {
		return policyFailure(p.CheckLength(pw)), nil
	})
}

// NotVeryWeak rejects trivially guessable passwords.
func NotVeryWeak[R identity.PasswordRecord]() Validator[R] {
	return ValidatorFunc[R](func(_ context.Context, _ R, pw string) (*identity.Failure, error) {
		if password.LooksVeryWeak(pw) {
			return policyFailure(password.ErrWeakPassword), nil
		}
		return nil, nil
	})
}

// RequireLetter rejects passwords without a letter.
func RequireLetter[R identity.PasswordRecord]() Validator[R] {
	return ValidatorFunc[R](func(_ context.Context, _ R, pw string) (*identity.Failure, error) {
		if !password.HasLetter(pw) {
			return policyFailure(password.ErrMissingLetter), nil
		}
		return nil, nil
	})
}

// RequireDigit rejects passwords without a digit.
func RequireDigit[R identity.PasswordRecord]() Validator[R] {
	return ValidatorFunc[R](func(_ context.Context, _ R, pw string) (*identity.Failure, error) {
		if !password.HasDigit(pw) {
			return policyFailure(password.ErrMissingDigit), nil
		}
		return nil, nil
	})
}

// msgContainsEmail is reported when a password embeds the account email.
const msgContainsEmail = "password must not contain your email"

// NotContainingEmail rejects passwords that contain the record's email or its
// local part (when at least 3 characters long), case-insensitively.
func NotContainingEmail[R identity.PasswordRecord](emailOf func(R) string) Validator[R] {
	return ValidatorFunc[R](func(_ context.Context, rec R, pw string) (*identity.Failure, error) {
		email := strings.ToLower(strings.TrimSpace(emailOf(rec)))
		if email == "" {
			return nil, nil
		}
		lower := strings.ToLower(pw)
		local, _, _ := strings.Cut(email, "@")
		if strings.Contains(lower, email) || (len(local) >= 3 && strings.Contains(lower, local)) {
			return identity.WeakPassword(msgContainsEmail), nil
		}
		return nil, nil
	})
}

// DefaultChain builds the validator chain for policy p.
//
// Order: length, very-weak, letter, digit, email. Rules disabled in p are not
// registered. The email rule is registered only when caps.Email is set, in which
// case emailOf must be provided. A record type without the password
// capability has nothing to validate and is rejected.
func DefaultChain[R identity.PasswordRecord](p password.Policy, caps identity.Capabilities, emailOf func(R) string) (*Chain[R], error) {
	if !caps.Password {
		return nil, fmt.Errorf("credentials: record type does not declare the password capability")
	}
	c := NewChain[R](Length[R](p))
	if p.RejectVeryWeak {
		c.Register(NotVeryWeak[R]())
	}
	if p.RequireLetter {
		c.Register(RequireLetter[R]())
	}
	if p.RequireDigit {
		c.Register(RequireDigit[R]())
	}
	if caps.Email {
		if emailOf == nil {
			return nil, fmt.Errorf("credentials: email capability declared without an email accessor")
		}
		c.Register(NotContainingEmail[R](emailOf))
	}
	return c, nil
}
