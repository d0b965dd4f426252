package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"warden/cmd/identity"
	"warden/cmd/internal/clock"
)

// Outcome classifies a single Authenticate call.
type Outcome string

const (
	OutcomeAnonymous   Outcome = "anonymous"
	OutcomeFresh       Outcome = "fresh"
	OutcomeRevalidated Outcome = "revalidated"
	OutcomeRevoked     Outcome = "revoked"
	OutcomeInvalid     Outcome = "invalid"
)

// Loader loads the current user record for a ticket's user key. A missing
// user must be reported with an identity.ErrNotFound-kinded error.
type Loader[R identity.StampedRecord] interface {
	LoadRecord(ctx context.Context, key string) (R, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[R identity.StampedRecord] func(ctx context.Context, key string) (R, error)

func (f LoaderFunc[R]) LoadRecord(ctx context.Context, key string) (R, error) { return f(ctx, key) }

// StoreLoader loads *identity.User records from store.
func StoreLoader(store identity.Store) Loader[*identity.User] {
	return LoaderFunc[*identity.User](store.Get)
}

// UserFromTicket builds the identity returned for a fresh ticket.
func UserFromTicket(t Ticket) *identity.User {
	return &identity.User{Key: t.UserKey, SecurityStamp: t.SecurityStamp}
}

// Option configures an Authenticator.
type Option func(*options)

type options struct {
	clock   clock.Clock
	logger  *slog.Logger
	observe func(Outcome)
}

// WithClock overrides the system clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for revocation events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers a callback invoked once per Authenticate call.
func WithObserver(fn func(Outcome)) Option {
	return func(o *options) { o.observe = fn }
}

// Authenticator issues tickets and resolves them back into user records.
type Authenticator[R identity.StampedRecord] struct {
	cfg        Config
	loader     Loader[R]
	fromTicket func(Ticket) R
	opts       options
}

// NewAuthenticator constructs an Authenticator. fromTicket builds the value
// returned while a ticket is fresh, when the store is not consulted.
func NewAuthenticator[R identity.StampedRecord](cfg Config, loader Loader[R], fromTicket func(Ticket) R, opts ...Option) (*Authenticator[R], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if loader == nil || fromTicket == nil {
		return nil, errors.New("session: loader and ticket constructor are required")
	}

	o := options{clock: clock.System{}, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Authenticator[R]{cfg: cfg, loader: loader, fromTicket: fromTicket, opts: o}, nil
}

// Login persists a new ticket for (userKey, securityStamp).
func (a *Authenticator[R]) Login(ctx context.Context, t Transport, userKey, securityStamp string, persistent bool) error {
	return a.LoginWith(ctx, t, userKey, securityStamp, Properties{AllowRefresh: true, Persistent: persistent})
}

// LoginWith is Login with caller-supplied properties. IssuedAt is set to now
// unless already present; ExpiresAt defaults to IssuedAt + TicketTTL.
func (a *Authenticator[R]) LoginWith(ctx context.Context, t Transport, userKey, securityStamp string, props Properties) error {
	const op = "session.Login"

	if t == nil {
		return identity.Invalid(op, "missing transport")
	}
	if strings.TrimSpace(userKey) == "" {
		return identity.Invalid(op, "missing user key")
	}
	if strings.TrimSpace(securityStamp) == "" {
		return identity.Invalid(op, "missing security stamp")
	}

	now := a.opts.clock.Now()
	if props.IssuedAt.IsZero() {
		props.IssuedAt = now
	}
	if props.ExpiresAt.IsZero() {
		props.ExpiresAt = props.IssuedAt.Add(a.cfg.TicketTTL)
	}

	return t.Persist(ctx, Ticket{
		UserKey:       userKey,
		SecurityStamp: securityStamp,
		ValidatedAt:   now,
		Properties:    props,
	})
}

// Authenticate resolves the ticket in t.
//
// It returns ok=false for anonymous requests. Unusable tickets (undecodable,
// incomplete, expired, unknown user, stale stamp) are cleared from the
// transport and also reported as anonymous. Only transport and store
// failures are returned as errors.
func (a *Authenticator[R]) Authenticate(ctx context.Context, t Transport) (R, bool, error) {
	rec, outcome, err := a.Resolve(ctx, t)
	if err != nil {
		return rec, false, err
	}
	return rec, outcome == OutcomeFresh || outcome == OutcomeRevalidated, nil
}

// Resolve is Authenticate reporting how the ticket was classified. With
// OutcomeRevalidated the record was loaded from the store during this call;
// with OutcomeFresh it was built from the ticket alone.
func (a *Authenticator[R]) Resolve(ctx context.Context, t Transport) (R, Outcome, error) {
	var zero R
	if t == nil {
		return zero, OutcomeAnonymous, identity.Invalid("session.Authenticate", "missing transport")
	}

	tk, err := t.Read(ctx)
	if errors.Is(err, ErrTicketInvalid) {
		return zero, OutcomeInvalid, a.reject(ctx, t, OutcomeInvalid, "", "undecodable")
	}
	if err != nil {
		return zero, OutcomeAnonymous, err
	}
	if tk == nil {
		a.observe(OutcomeAnonymous)
		return zero, OutcomeAnonymous, nil
	}

	now := a.opts.clock.Now()
	if !tk.complete() {
		return zero, OutcomeInvalid, a.reject(ctx, t, OutcomeInvalid, tk.UserKey, "incomplete")
	}
	if tk.expired(now) {
		return zero, OutcomeInvalid, a.reject(ctx, t, OutcomeInvalid, tk.UserKey, "expired")
	}

	if now.Sub(tk.ValidatedAt) < a.cfg.RevalidationInterval {
		a.observe(OutcomeFresh)
		return a.fromTicket(*tk), OutcomeFresh, nil
	}

	rec, err := a.loader.LoadRecord(ctx, tk.UserKey)
	if identity.IsNotFound(err) {
		return zero, OutcomeRevoked, a.reject(ctx, t, OutcomeRevoked, tk.UserKey, "user not found")
	}
	if err != nil {
		return zero, OutcomeAnonymous, err
	}
	if rec.Stamp() != tk.SecurityStamp {
		return zero, OutcomeRevoked, a.reject(ctx, t, OutcomeRevoked, tk.UserKey, "stamp mismatch")
	}

	tk.ValidatedAt = now
	if tk.Properties.AllowRefresh {
		tk.Properties.ExpiresAt = now.Add(a.cfg.TicketTTL)
	}
	if err := t.Persist(ctx, *tk); err != nil {
		return zero, OutcomeRevalidated, err
	}

	a.observe(OutcomeRevalidated)
	return rec, OutcomeRevalidated, nil
}

// Reissue replaces the stamp on the ticket currently held by t and marks it
// validated now. It keeps the acting session alive across a stamp rotation
// that revokes every other session. Without a usable ticket it does nothing.
func (a *Authenticator[R]) Reissue(ctx context.Context, t Transport, securityStamp string) error {
	const op = "session.Reissue"

	if t == nil {
		return identity.Invalid(op, "missing transport")
	}
	if strings.TrimSpace(securityStamp) == "" {
		return identity.Invalid(op, "missing security stamp")
	}

	tk, err := t.Read(ctx)
	if errors.Is(err, ErrTicketInvalid) || (err == nil && tk == nil) {
		return nil
	}
	if err != nil {
		return err
	}

	now := a.opts.clock.Now()
	tk.SecurityStamp = securityStamp
	tk.ValidatedAt = now
	if tk.Properties.AllowRefresh {
		tk.Properties.ExpiresAt = now.Add(a.cfg.TicketTTL)
	}
	return t.Persist(ctx, *tk)
}

// Logout clears the transport. It is not an error when there is no session.
func (a *Authenticator[R]) Logout(ctx context.Context, t Transport) error {
	if t == nil {
		return nil
	}
	return t.Clear(ctx)
}

// Config returns the authenticator settings.
func (a *Authenticator[R]) Config() Config { return a.cfg }

func (a *Authenticator[R]) reject(ctx context.Context, t Transport, outcome Outcome, userKey, reason string) error {
	a.observe(outcome)
	a.opts.logger.InfoContext(ctx, "auth.session.revoked",
		slog.String("user_key", userKey),
		slog.String("reason", reason),
	)
	return t.Clear(ctx)
}

func (a *Authenticator[R]) observe(o Outcome) {
	if a.opts.observe != nil {
		a.opts.observe(o)
	}
}
