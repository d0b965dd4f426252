package verify

import (
	"context"
	"errors"
	"strings"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/onetime"
	"warden/cmd/internal/clock"
)

// Service issues and validates verification codes.
type Service struct {
	cfg   Config
	store onetime.Store
	clock clock.Clock
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the system clock.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewService constructs a Service.
func NewService(cfg Config, store onetime.Store, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("verify: nil token store")
	}
	s := &Service{cfg: cfg, store: store, clock: clock.System{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// TokenValue is the single-use token identity for a code: purpose-userKey-code.
func TokenValue(p Purpose, userKey string, c Code) string {
	return string(p) + "-" + userKey + "-" + c.String()
}

// CreateCode generates a code for (purpose, userKey) and registers it until
// now plus the purpose's lifetime. The caller delivers the code.
func (s *Service) CreateCode(ctx context.Context, p Purpose, userKey string) (Code, error) {
	const op = "verify.CreateCode"

	if err := checkArgs(op, p, userKey); err != nil {
		return Code{}, err
	}

	c, err := GenerateCode(s.cfg.Digits)
	if err != nil {
		return Code{}, err
	}

	exp := s.clock.Now().Add(s.cfg.TTL(p))
	if err := s.store.Create(ctx, TokenValue(p, userKey, c), exp); err != nil {
		return Code{}, err
	}
	return c, nil
}

// ValidateCode reports whether c was issued for (purpose, userKey) and is
// still redeemable. The store decides consumption.
func (s *Service) ValidateCode(ctx context.Context, p Purpose, userKey string, c Code) (bool, error) {
	const op = "verify.ValidateCode"

	if err := checkArgs(op, p, userKey); err != nil {
		return false, err
	}
	if c.IsZero() {
		return false, identity.Invalid(op, "missing code")
	}
	return s.store.Validate(ctx, TokenValue(p, userKey, c), s.clock.Now())
}

func checkArgs(op string, p Purpose, userKey string) error {
	if !p.Valid() {
		return identity.Invalid(op, "unknown purpose")
	}
	if strings.TrimSpace(userKey) == "" {
		return identity.Invalid(op, "missing user key")
	}
	return nil
}
