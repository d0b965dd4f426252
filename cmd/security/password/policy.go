package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks every policy rule in a fixed order and returns the first violation.
// It does not mutate input.
func (p Policy) Validate(password string) error {
	if err := p.CheckLength(password); err != nil {
		return err
	}
	if p.RejectVeryWeak && LooksVeryWeak(password) {
		return ErrWeakPassword
	}
	if p.RequireLetter && !containsFunc(password, unicode.IsLetter) {
		return ErrMissingLetter
	}
	if p.RequireDigit && !containsFunc(password, unicode.IsDigit) {
		return ErrMissingDigit
	}
	return nil
}

// CheckLength enforces MinLength/MaxLength.
// Characters (runes) are counted, not bytes.
func (p Policy) CheckLength(password string) error {
	n := utf8.RuneCountInString(password)

	if n < p.MinLength {
		return ErrPasswordTooShort
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return ErrPasswordTooLong
	}
	return nil
}

// HasDigit reports whether password contains at least one decimal digit.
func HasDigit(password string) bool { return containsFunc(password, unicode.IsDigit) }

// HasLetter reports whether password contains at least one letter.
func HasLetter(password string) bool { return containsFunc(password, unicode.IsLetter) }

// LooksVeryWeak is intentionally minimal and conservative.
// It is not a full zxcvbn-style estimator.
func LooksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	// Reject if all same char.
	allSame := true
	var first rune
	for i, r := range s {
		if i == 0 {
			first = r
			continue
		}
		if r != first {
			allSame = false
			break
		}
	}
	if allSame {
		return true
	}

	// Only digits and short-ish (PIN-like).
	if !containsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) && utf8.RuneCountInString(s) < 12 {
		return true
	}

	switch strings.ToLower(s) {
	case "password", "password1", "password123", "123456", "123456789", "qwerty", "qwerty123", "11111111", "letmein1":
		return true
	}

	return false
}

func containsFunc(s string, f func(rune) bool) bool {
	return strings.IndexFunc(s, f) >= 0
}
