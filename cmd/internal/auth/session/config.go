package session

import (
	"os"
	"strings"
	"time"
)

// Codec names accepted by WARDEN_SESSION_CODEC.
const (
	CodecPaseto = "paseto"
	CodecJWT    = "jwt"
)

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// RevalidationInterval is how long a ticket is trusted before the user
	// record is reloaded and its security stamp compared.
	RevalidationInterval time.Duration

	// TicketTTL bounds the lifetime of a ticket. Tickets that allow refresh
	// slide forward on every revalidation.
	TicketTTL time.Duration

	// Codec selects the ticket sealing format.
	Codec string

	// Issuer is set on sealed tickets and checked on open.
	Issuer string

	// ClockSkew is tolerated when opening sealed tickets.
	ClockSkew time.Duration

	// PasetoSecretKeyHex is the hex-encoded Ed25519 secret key used for v4.public tickets.
	PasetoSecretKeyHex string

	// JWTSecret is the HS256 key used when Codec is "jwt".
	JWTSecret string
}

// DefaultConfig returns the baseline configuration. Keys are not defaulted.
func DefaultConfig() Config {
	return Config{
		RevalidationInterval: 30 * time.Minute,
		TicketTTL:            14 * 24 * time.Hour,
		Codec:                CodecPaseto,
		Issuer:               "warden",
		ClockSkew:            30 * time.Second,
	}
}

// Validate checks the settings the Authenticator depends on. Key material is
// checked when a codec is built.
func (c Config) Validate() error {
	if c.RevalidationInterval <= 0 || c.TicketTTL <= 0 || c.ClockSkew < 0 {
		return ErrConfig
	}
	switch c.Codec {
	case CodecPaseto, CodecJWT:
	default:
		return ErrConfig
	}
	return nil
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (durations must be valid Go duration strings):
//   - WARDEN_SESSION_REVALIDATION_INTERVAL
//   - WARDEN_SESSION_TICKET_TTL
//   - WARDEN_SESSION_CODEC (paseto|jwt)
//   - WARDEN_SESSION_ISSUER
//   - WARDEN_SESSION_CLOCK_SKEW
//   - WARDEN_SESSION_PASETO_SECRET_KEY_HEX
//   - WARDEN_SESSION_JWT_SECRET
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	return ApplyEnv(DefaultConfig())
}

// ApplyEnv overrides cfg with any session variables that are set.
func ApplyEnv(cfg Config) (Config, error) {
	for _, d := range []struct {
		key      string
		dst      *time.Duration
		allowNil bool
	}{
		{"WARDEN_SESSION_REVALIDATION_INTERVAL", &cfg.RevalidationInterval, false},
		{"WARDEN_SESSION_TICKET_TTL", &cfg.TicketTTL, false},
		{"WARDEN_SESSION_CLOCK_SKEW", &cfg.ClockSkew, true},
	} {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed < 0 || (parsed == 0 && !d.allowNil) {
			return Config{}, ErrConfig
		}
		*d.dst = parsed
	}

	if v := os.Getenv("WARDEN_SESSION_CODEC"); v != "" {
		cfg.Codec = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("WARDEN_SESSION_ISSUER"); v != "" {
		cfg.Issuer = v
	}
	if v := os.Getenv("WARDEN_SESSION_PASETO_SECRET_KEY_HEX"); v != "" {
		cfg.PasetoSecretKeyHex = v
	}
	if v := os.Getenv("WARDEN_SESSION_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
