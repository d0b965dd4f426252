package credentials

import (
	"context"

	"warden/cmd/identity"
)

// Validator checks a candidate password for rec.
// A non-nil Failure rejects the password; an error is an operational failure.
type Validator[R identity.PasswordRecord] interface {
	Validate(ctx context.Context, rec R, password string) (*identity.Failure, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc[R identity.PasswordRecord] func(ctx context.Context, rec R, password string) (*identity.Failure, error)

func (f ValidatorFunc[R]) Validate(ctx context.Context, rec R, password string) (*identity.Failure, error) {
	return f(ctx, rec, password)
}

// Chain is an ordered list of validators.
type Chain[R identity.PasswordRecord] struct {
	validators []Validator[R]
}

// NewChain returns a chain running vs in order. Nil validators are skipped.
func NewChain[R identity.PasswordRecord](vs ...Validator[R]) *Chain[R] {
	c := &Chain[R]{}
	for _, v := range vs {
		c.Register(v)
	}
	return c
}

// Register appends v to the chain.
func (c *Chain[R]) Register(v Validator[R]) {
	if v == nil {
		return
	}
	c.validators = append(c.validators, v)
}

// Len returns the number of registered validators.
func (c *Chain[R]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.validators)
}

// Validate runs every validator in order and stops at the first failure or error.
func (c *Chain[R]) Validate(ctx context.Context, rec R, password string) (*identity.Failure, error) {
	if c == nil {
		return nil, nil
	}
	for _, v := range c.validators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := v.Validate(ctx, rec, password)
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
	}
	return nil, nil
}
