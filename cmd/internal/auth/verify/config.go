package verify

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds code length and per-purpose lifetimes.
type Config struct {
	Digits      int
	EmailTTL    time.Duration
	PasswordTTL time.Duration
}

// DefaultConfig returns 6 digits, 7 days for email and 1 day for password codes.
func DefaultConfig() Config {
	return Config{
		Digits:      DefaultDigits,
		EmailTTL:    7 * 24 * time.Hour,
		PasswordTTL: 24 * time.Hour,
	}
}

// TTL returns the lifetime for p.
func (c Config) TTL(p Purpose) time.Duration {
	if p == PurposeEmail {
		return c.EmailTTL
	}
	return c.PasswordTTL
}

// Validate reports unusable settings.
func (c Config) Validate() error {
	if c.Digits < MinDigits || c.Digits > maxDigits {
		return fmt.Errorf("verify: digits must be in [%d..%d]", MinDigits, maxDigits)
	}
	if c.EmailTTL <= 0 || c.PasswordTTL <= 0 {
		return fmt.Errorf("verify: code lifetimes must be positive")
	}
	return nil
}

// ApplyEnv overrides cfg from WARDEN_CODE_DIGITS, WARDEN_CODE_EMAIL_TTL and WARDEN_CODE_PASSWORD_TTL.
func ApplyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("WARDEN_CODE_DIGITS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_CODE_DIGITS: %w", err)
		}
		cfg.Digits = n
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"WARDEN_CODE_EMAIL_TTL", &cfg.EmailTTL},
		{"WARDEN_CODE_PASSWORD_TTL", &cfg.PasswordTTL},
	} {
		v := strings.TrimSpace(os.Getenv(d.key))
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
