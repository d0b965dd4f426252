package identity

import "context"

// Store is the user record persistence boundary.
//
// Contract:
// - Get/GetByEmail return ErrNotFound (possibly wrapped) when no record matches.
// - GetByEmail expects an already normalized email (see NormalizeEmail).
// - Create/Update return the same *User they were given; no hidden transformation.
// - Create reports a taken email as ConflictError{Field: "email"}.
type Store interface {
	Get(ctx context.Context, key string) (*User, error)
	GetByEmail(ctx context.Context, emailNorm string) (*User, error)
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, key string) error
}

func checkUser(op string, u *User) error {
	if u == nil {
		return Invalid(op, "nil user")
	}
	if NormalizeKey(u.Key) == "" {
		return Invalid(op, "missing key")
	}
	if u.Email != "" && u.EmailNorm != NormalizeEmail(u.Email) {
		return Invalid(op, "email_norm out of sync with email")
	}
	return nil
}
