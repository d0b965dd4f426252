package lockout

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrConfig is returned for invalid configuration.
var ErrConfig = errors.New("invalid lockout config")

// Config is the lockout policy.
type Config struct {
	// Window is both the failure window and the ban duration.
	Window time.Duration
	// MaxAttempts is the failure count that triggers a ban. Must be >= 2.
	MaxAttempts int
}

// DefaultConfig returns W=10m, M=5.
func DefaultConfig() Config {
	return Config{
		Window:      10 * time.Minute,
		MaxAttempts: 5,
	}
}

// Validate reports an unusable policy.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive", ErrConfig)
	}
	if c.MaxAttempts < 2 {
		return fmt.Errorf("%w: max attempts must be >= 2", ErrConfig)
	}
	return nil
}

// LoadConfigFromEnv loads the policy from environment variables.
//
// Optional:
//   - WARDEN_LOCKOUT_WINDOW (Go duration)
//   - WARDEN_LOCKOUT_MAX_ATTEMPTS
func LoadConfigFromEnv() (Config, error) {
	return ApplyEnv(DefaultConfig())
}

// ApplyEnv overrides cfg with any WARDEN_LOCKOUT_* variables that are set.
func ApplyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("WARDEN_LOCKOUT_WINDOW")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: WARDEN_LOCKOUT_WINDOW: %v", ErrConfig, err)
		}
		cfg.Window = d
	}
	if v := strings.TrimSpace(os.Getenv("WARDEN_LOCKOUT_MAX_ATTEMPTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: WARDEN_LOCKOUT_MAX_ATTEMPTS: %v", ErrConfig, err)
		}
		cfg.MaxAttempts = n
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
