package password

import "errors"

// Public, stable errors for callers.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
	ErrMissingDigit     = errors.New("password must contain a digit")
	ErrMissingLetter    = errors.New("password must contain a letter")
	ErrEmptyPassword    = errors.New("empty password")
	ErrInvalidHash      = errors.New("invalid password hash")
	ErrUnknownAlgorithm = errors.New("unknown password algorithm")
)
