package identity

import (
	"time"

	"warden/cmd/identity/ids"
)

// User is warden's canonical user record.
type User struct {
	Key            string
	Email          string
	EmailNorm      string
	EmailConfirmed bool

	PasswordHash string
	// SecurityStamp is rotated on every credential-affecting change.
	// Sessions carrying an older stamp are rejected on revalidation.
	SecurityStamp string

	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// KeyedRecord is anything with a stable, non-empty user key.
type KeyedRecord interface {
	RecordKey() string
}

// EmailRecord exposes a login email and its confirmation flag.
type EmailRecord interface {
	KeyedRecord
	LoginEmail() string
	IsEmailConfirmed() bool
	SetEmailConfirmed(bool)
}

// PasswordRecord carries a stored password hash.
type PasswordRecord interface {
	KeyedRecord
	CredentialHash() string
	SetCredentialHash(string)
}

// StampedRecord carries a security stamp.
type StampedRecord interface {
	KeyedRecord
	Stamp() string
	SetStamp(string)
}

// Capabilities declares which optional features a user type carries.
// Callers state this explicitly for their record type; nothing is inferred at runtime.
// Security stamps are not listed: the session authenticator requires
// StampedRecord at compile time.
type Capabilities struct {
	Email    bool
	Password bool
}

// UserCapabilities describes *User.
var UserCapabilities = Capabilities{Email: true, Password: true}

func (u *User) RecordKey() string { return u.Key }

func (u *User) LoginEmail() string { return u.Email }

func (u *User) IsEmailConfirmed() bool { return u.EmailConfirmed }

func (u *User) SetEmailConfirmed(v bool) { u.EmailConfirmed = v }

func (u *User) CredentialHash() string { return u.PasswordHash }

func (u *User) SetCredentialHash(h string) { u.PasswordHash = h }

func (u *User) Stamp() string { return u.SecurityStamp }

func (u *User) SetStamp(s string) { u.SecurityStamp = s }

// SetEmail sets Email and keeps EmailNorm in sync.
func (u *User) SetEmail(email string) {
	u.Email = email
	u.EmailNorm = NormalizeEmail(email)
	if u.EmailNorm == "" {
		u.Email = ""
	}
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// NewKey returns a new ULID user key.
func NewKey(now time.Time) (string, error) {
	return ids.NewULID(now)
}

// NewSecurityStamp returns a fresh random security stamp.
func NewSecurityStamp() (string, error) {
	return ids.NewStamp()
}

// RotateStamp assigns a fresh security stamp to rec.
func RotateStamp(rec StampedRecord) error {
	s, err := NewSecurityStamp()
	if err != nil {
		return err
	}
	rec.SetStamp(s)
	return nil
}
