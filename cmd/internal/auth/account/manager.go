package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/credentials"
	"warden/cmd/internal/auth/lockout"
	"warden/cmd/internal/auth/session"
	"warden/cmd/internal/auth/verify"
	"warden/cmd/internal/clock"
	"warden/cmd/internal/telemetry"
)

// dummyPassword is hashed once at construction so logins for unknown
// accounts spend the same KDF time as real ones.
const dummyPassword = "dummy-password-for-timing-only"

// Deps are the collaborators a Manager sequences. All are required.
type Deps struct {
	Users     identity.Store
	Passwords *credentials.Pipeline[*identity.User]
	Lockout   *lockout.Tracker
	Codes     *verify.Service
	Sessions  *session.Authenticator[*identity.User]
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock overrides the system clock.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithMetrics records flow outcomes.
func WithMetrics(mt *telemetry.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// Manager is the identity orchestrator.
type Manager struct {
	users     identity.Store
	passwords *credentials.Pipeline[*identity.User]
	lockout   *lockout.Tracker
	codes     *verify.Service
	sessions  *session.Authenticator[*identity.User]

	log     *slog.Logger
	clock   clock.Clock
	metrics *telemetry.Metrics

	dummyHash string
}

// NewManager constructs a Manager.
func NewManager(d Deps, opts ...Option) (*Manager, error) {
	if d.Users == nil || d.Passwords == nil || d.Lockout == nil || d.Codes == nil || d.Sessions == nil {
		return nil, errors.New("account: missing dependency")
	}

	m := &Manager{
		users:     d.Users,
		passwords: d.Passwords,
		lockout:   d.Lockout,
		codes:     d.Codes,
		sessions:  d.Sessions,
		log:       slog.Default(),
		clock:     clock.System{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	hash, err := d.Passwords.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}
	m.dummyHash = hash

	return m, nil
}

// Sessions exposes the session authenticator.
func (m *Manager) Sessions() *session.Authenticator[*identity.User] { return m.sessions }

// Register creates an account for email with password.
func (m *Manager) Register(ctx context.Context, email, password string) (Result, error) {
	const op = "account.Register"

	norm := identity.NormalizeEmail(email)
	if norm == "" {
		return Result{}, identity.Invalid(op, "missing email")
	}
	if strings.TrimSpace(password) == "" {
		return Result{}, identity.Invalid(op, "missing password")
	}

	if _, err := m.users.GetByEmail(ctx, norm); err == nil {
		m.metrics.Registration(string(identity.FailureEmailNotAvailable))
		return failed(identity.FailureEmailNotAvailable), nil
	} else if !identity.IsNotFound(err) {
		return Result{}, err
	}

	now := m.clock.Now()
	key, err := identity.NewKey(now)
	if err != nil {
		return Result{}, err
	}

	u := &identity.User{Key: key, CreatedAt: now}
	u.SetEmail(strings.TrimSpace(email))

	f, err := m.passwords.SetPasswordHash(ctx, u, password)
	if err != nil {
		return Result{}, err
	}
	if f != nil {
		m.metrics.Registration(string(f.Code))
		return Result{Failure: f}, nil
	}

	if err := identity.RotateStamp(u); err != nil {
		return Result{}, err
	}

	created, err := m.users.Create(ctx, u)
	if identity.IsConflict(err) {
		// Lost a race with a concurrent registration.
		m.metrics.Registration(string(identity.FailureEmailNotAvailable))
		return failed(identity.FailureEmailNotAvailable), nil
	}
	if err != nil {
		return Result{}, err
	}

	m.metrics.Registration("success")
	m.log.InfoContext(ctx, "auth.register.ok", slog.String("user_key", created.Key))
	return succeeded(created), nil
}

// Login checks credentials and, on success, starts a session on t.
//
// The lockout tracker is consulted before the account is loaded, and every
// call counts as an attempt. Unknown accounts and wrong passwords produce the
// same failure.
func (m *Manager) Login(ctx context.Context, t session.Transport, email, password string, persistent bool) (Result, error) {
	const op = "account.Login"

	norm := identity.NormalizeEmail(email)
	if norm == "" {
		return Result{}, identity.Invalid(op, "missing email")
	}
	if strings.TrimSpace(password) == "" {
		return Result{}, identity.Invalid(op, "missing password")
	}
	if t == nil {
		return Result{}, identity.Invalid(op, "missing transport")
	}

	locked, err := m.lockout.IsLockedOut(ctx, lockoutKey(norm))
	if err != nil {
		return Result{}, err
	}
	if locked {
		m.metrics.LockedOut()
		m.metrics.Login(string(identity.FailureLockedOut))
		m.log.WarnContext(ctx, "auth.login.locked_out")
		return failed(identity.FailureLockedOut), nil
	}

	u, err := m.users.GetByEmail(ctx, norm)
	if identity.IsNotFound(err) || (err == nil && u.CredentialHash() == "") {
		// Timing resistance: spend a verify when there is nothing to check.
		_ = m.passwords.Hasher().Verify(m.dummyHash, password)
		return m.invalidCredentials(ctx, "not_found"), nil
	}
	if err != nil {
		return Result{}, err
	}

	res, err := m.passwords.ValidatePassword(u, password)
	if err != nil {
		return Result{}, err
	}
	if !res.Valid {
		return m.invalidCredentials(ctx, "bad_password"), nil
	}

	if err := m.lockout.Reset(ctx, lockoutKey(norm)); err != nil {
		return Result{}, err
	}

	if res.UpdateHash {
		h, err := m.passwords.Hash(password)
		if err != nil {
			return Result{}, err
		}
		u.SetCredentialHash(h)
		m.log.InfoContext(ctx, "auth.login.rehash", slog.String("user_key", u.Key))
	}

	if err := m.sessions.Login(ctx, t, u.Key, u.SecurityStamp, persistent); err != nil {
		return Result{}, err
	}

	now := m.clock.Now()
	u.LastLoginAt = &now
	updated, err := m.users.Update(ctx, u)
	if err != nil {
		return Result{}, err
	}

	m.metrics.Login("success")
	m.log.InfoContext(ctx, "auth.login.ok", slog.String("user_key", u.Key))
	return succeeded(updated), nil
}

// ChangePassword replaces the signed-in user's password after checking the
// current one. The stamp is rotated, which revokes every other session; the
// caller's own ticket is reissued with the new stamp.
func (m *Manager) ChangePassword(ctx context.Context, t session.Transport, current, next string) (Result, error) {
	const op = "account.ChangePassword"

	if strings.TrimSpace(current) == "" || strings.TrimSpace(next) == "" {
		return Result{}, identity.Invalid(op, "missing password")
	}

	u, res, err := m.requireUser(ctx, t)
	if err != nil || u == nil {
		return res, err
	}
	if u.CredentialHash() == "" {
		return failed(identity.FailureInvalidCredentials), nil
	}

	check, err := m.passwords.ValidatePassword(u, current)
	if err != nil {
		return Result{}, err
	}
	if !check.Valid {
		return failed(identity.FailureInvalidCredentials), nil
	}

	updated, f, err := m.replacePassword(ctx, u, next, "change_password")
	if err != nil || f != nil {
		return Result{Failure: f}, err
	}

	if err := m.sessions.Reissue(ctx, t, updated.SecurityStamp); err != nil {
		return Result{}, err
	}
	return succeeded(updated), nil
}

// IssuePasswordReset creates a reset code for the account registered under
// email. Unknown accounts yield (nil, nil) so callers cannot tell whether they exist.
func (m *Manager) IssuePasswordReset(ctx context.Context, email string) (*Issued, error) {
	const op = "account.IssuePasswordReset"

	norm := identity.NormalizeEmail(email)
	if norm == "" {
		return nil, identity.Invalid(op, "missing email")
	}

	u, err := m.users.GetByEmail(ctx, norm)
	if identity.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.issue(ctx, u, verify.PurposePassword)
}

// ResetPassword sets a new password using a reset code. The code is consumed
// even when the new password is rejected.
func (m *Manager) ResetPassword(ctx context.Context, email string, code verify.Code, next string) (Result, error) {
	const op = "account.ResetPassword"

	norm := identity.NormalizeEmail(email)
	if norm == "" {
		return Result{}, identity.Invalid(op, "missing email")
	}
	if strings.TrimSpace(next) == "" {
		return Result{}, identity.Invalid(op, "missing password")
	}
	if code.IsZero() {
		return Result{}, identity.Invalid(op, "missing code")
	}

	u, err := m.users.GetByEmail(ctx, norm)
	if identity.IsNotFound(err) {
		return failed(identity.FailureInvalidCode), nil
	}
	if err != nil {
		return Result{}, err
	}

	ok, err := m.validateCode(ctx, verify.PurposePassword, u.Key, code)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return failed(identity.FailureInvalidCode), nil
	}

	updated, f, err := m.replacePassword(ctx, u, next, "reset_password")
	if err != nil || f != nil {
		return Result{Failure: f}, err
	}

	// A proven reset lifts any active lockout on the address.
	if err := m.lockout.Reset(ctx, lockoutKey(norm)); err != nil {
		return Result{}, err
	}
	return succeeded(updated), nil
}

// IssueEmailConfirmation creates an email confirmation code for userKey.
func (m *Manager) IssueEmailConfirmation(ctx context.Context, userKey string) (*Issued, error) {
	const op = "account.IssueEmailConfirmation"

	key := identity.NormalizeKey(userKey)
	if key == "" {
		return nil, identity.Invalid(op, "missing user key")
	}

	u, err := m.users.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if u.Email == "" {
		return nil, identity.Invalid(op, "user has no email")
	}
	return m.issue(ctx, u, verify.PurposeEmail)
}

// ConfirmEmail marks the user's email as confirmed when code is valid.
func (m *Manager) ConfirmEmail(ctx context.Context, userKey string, code verify.Code) (Result, error) {
	const op = "account.ConfirmEmail"

	key := identity.NormalizeKey(userKey)
	if key == "" {
		return Result{}, identity.Invalid(op, "missing user key")
	}
	if code.IsZero() {
		return Result{}, identity.Invalid(op, "missing code")
	}

	u, err := m.users.Get(ctx, key)
	if identity.IsNotFound(err) {
		return failed(identity.FailureInvalidCode), nil
	}
	if err != nil {
		return Result{}, err
	}

	ok, err := m.validateCode(ctx, verify.PurposeEmail, u.Key, code)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return failed(identity.FailureInvalidCode), nil
	}

	u.SetEmailConfirmed(true)
	updated, err := m.users.Update(ctx, u)
	if err != nil {
		return Result{}, err
	}
	m.log.InfoContext(ctx, "auth.email.confirmed", slog.String("user_key", u.Key))
	return succeeded(updated), nil
}

// LogoutEverywhere rotates the signed-in user's stamp, which revokes every
// outstanding session on its next revalidation, and clears t.
func (m *Manager) LogoutEverywhere(ctx context.Context, t session.Transport) (Result, error) {
	u, res, err := m.requireUser(ctx, t)
	if err != nil || u == nil {
		return res, err
	}

	if err := identity.RotateStamp(u); err != nil {
		return Result{}, err
	}
	updated, err := m.users.Update(ctx, u)
	if err != nil {
		return Result{}, err
	}
	m.metrics.StampRotated("logout_everywhere")

	if err := m.sessions.Logout(ctx, t); err != nil {
		return Result{}, err
	}
	m.log.InfoContext(ctx, "auth.logout_all.ok", slog.String("user_key", u.Key))
	return succeeded(updated), nil
}

// Logout ends the session on t only.
func (m *Manager) Logout(ctx context.Context, t session.Transport) error {
	return m.sessions.Logout(ctx, t)
}

// CurrentUser returns the full record for the session on t. ok is false for
// anonymous or revoked sessions.
func (m *Manager) CurrentUser(ctx context.Context, t session.Transport) (*identity.User, bool, error) {
	u, _, err := m.requireUser(ctx, t)
	if err != nil || u == nil {
		return nil, false, err
	}
	return u, true, nil
}

// DeleteAccount removes the signed-in user after re-checking the password.
func (m *Manager) DeleteAccount(ctx context.Context, t session.Transport, password string) (Result, error) {
	const op = "account.DeleteAccount"

	if strings.TrimSpace(password) == "" {
		return Result{}, identity.Invalid(op, "missing password")
	}

	u, res, err := m.requireUser(ctx, t)
	if err != nil || u == nil {
		return res, err
	}
	if u.CredentialHash() == "" {
		return failed(identity.FailureInvalidCredentials), nil
	}

	check, err := m.passwords.ValidatePassword(u, password)
	if err != nil {
		return Result{}, err
	}
	if !check.Valid {
		return failed(identity.FailureInvalidCredentials), nil
	}

	if err := m.users.Delete(ctx, u.Key); err != nil {
		return Result{}, err
	}
	if u.EmailNorm != "" {
		if err := m.lockout.Reset(ctx, lockoutKey(u.EmailNorm)); err != nil {
			return Result{}, err
		}
	}
	if err := m.sessions.Logout(ctx, t); err != nil {
		return Result{}, err
	}

	m.log.InfoContext(ctx, "auth.account.deleted", slog.String("user_key", u.Key))
	return succeeded(u), nil
}

// requireUser resolves the session on t into a full user record. When the
// session is anonymous or revoked it returns a nil user and a
// not-authenticated Result.
func (m *Manager) requireUser(ctx context.Context, t session.Transport) (*identity.User, Result, error) {
	if t == nil {
		return nil, Result{}, identity.Invalid("account.requireUser", "missing transport")
	}

	principal, outcome, err := m.sessions.Resolve(ctx, t)
	if err != nil {
		return nil, Result{}, err
	}
	switch outcome {
	case session.OutcomeRevalidated:
		return principal, Result{}, nil
	case session.OutcomeFresh:
	default:
		return nil, failed(identity.FailureNotAuthenticated), nil
	}

	u, err := m.users.Get(ctx, principal.Key)
	if identity.IsNotFound(err) {
		if err := m.sessions.Logout(ctx, t); err != nil {
			return nil, Result{}, err
		}
		return nil, failed(identity.FailureNotAuthenticated), nil
	}
	if err != nil {
		return nil, Result{}, err
	}
	return u, Result{}, nil
}

// replacePassword runs the strength chain, rotates the stamp after the new
// hash is set and persists both together.
func (m *Manager) replacePassword(ctx context.Context, u *identity.User, next, reason string) (*identity.User, *identity.Failure, error) {
	f, err := m.passwords.SetPasswordHash(ctx, u, next)
	if err != nil || f != nil {
		return nil, f, err
	}
	if err := identity.RotateStamp(u); err != nil {
		return nil, nil, err
	}

	updated, err := m.users.Update(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	m.metrics.StampRotated(reason)
	m.log.InfoContext(ctx, "auth.password.replaced",
		slog.String("user_key", u.Key),
		slog.String("reason", reason),
	)
	return updated, nil, nil
}

func (m *Manager) issue(ctx context.Context, u *identity.User, p verify.Purpose) (*Issued, error) {
	code, err := m.codes.CreateCode(ctx, p, u.Key)
	if err != nil {
		return nil, err
	}
	m.metrics.CodeIssued(string(p))
	return &Issued{User: u, Purpose: p, Code: code}, nil
}

func (m *Manager) validateCode(ctx context.Context, p verify.Purpose, userKey string, code verify.Code) (bool, error) {
	ok, err := m.codes.ValidateCode(ctx, p, userKey, code)
	if err != nil {
		return false, err
	}
	m.metrics.CodeValidated(string(p), ok)
	return ok, nil
}

func (m *Manager) invalidCredentials(ctx context.Context, reason string) Result {
	m.metrics.Login(string(identity.FailureInvalidCredentials))
	m.log.InfoContext(ctx, "auth.login.failed", slog.String("reason", reason))
	return failed(identity.FailureInvalidCredentials)
}

func lockoutKey(emailNorm string) string {
	return "login:" + emailNorm
}
