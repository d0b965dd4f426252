package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Supported hashing algorithms.
const (
	AlgorithmPBKDF2   = "pbkdf2"
	AlgorithmArgon2id = "argon2id"
)

// PBKDF2Params controls PBKDF2-HMAC-SHA256 cost.
// Salt (16 bytes) and derived key (32 bytes) lengths are fixed by the hash format.
type PBKDF2Params struct {
	Iterations int
}

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls password strength rules and anti-DoS boundaries.
type Policy struct {
	MinLength int
	MaxLength int
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
	RequireDigit   bool
	RequireLetter  bool
}

// Config is the single configuration surface for this package.
type Config struct {
	// Algorithm selects the hasher used for new hashes. Hashes produced by the
	// other algorithm still verify and are flagged for update.
	Algorithm string
	PBKDF2    PBKDF2Params
	Argon2id  Argon2idParams
	Policy    Policy
}

// DefaultConfig returns a strong baseline.
// Values can be overridden via env.
func DefaultConfig() Config {
	// English comment:
	// CPU-aware parallelism, clamped to [1..4] to keep resource usage predictable in containers.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Algorithm: AlgorithmPBKDF2,
		PBKDF2: PBKDF2Params{
			Iterations: 100_000,
		},
		Argon2id: Argon2idParams{
			MemoryKiB:   64 * 1024,      // 64 MiB
			Iterations:  3,              // reasonable default for interactive logins
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      256,
			RejectVeryWeak: true,
		},
	}
}

// FromEnv loads config from environment variables on top of DefaultConfig.
//
// Env surface:
// - WARDEN_PASSWORD_ALGORITHM (pbkdf2|argon2id)
// - WARDEN_PBKDF2_ITERATIONS
// - WARDEN_PASSWORD_MIN_LEN
// - WARDEN_PASSWORD_MAX_LEN
// - WARDEN_PASSWORD_REJECT_VERY_WEAK (true/false)
// - WARDEN_PASSWORD_REQUIRE_DIGIT (true/false)
// - WARDEN_PASSWORD_REQUIRE_LETTER (true/false)
// - WARDEN_ARGON2_MEMORY_KIB
// - WARDEN_ARGON2_ITERATIONS
// - WARDEN_ARGON2_PARALLELISM
// - WARDEN_ARGON2_SALT_LEN
// - WARDEN_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	return ApplyEnv(DefaultConfig())
}

// ApplyEnv overrides cfg with any WARDEN_* password variables that are set.
func ApplyEnv(cfg Config) (Config, error) {
	if v, ok := os.LookupEnv("WARDEN_PASSWORD_ALGORITHM"); ok {
		cfg.Algorithm = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := os.LookupEnv("WARDEN_PBKDF2_ITERATIONS"); ok {
		n, err := atoiPositiveInt(v, 1_000, maxPBKDF2Iterations)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_PBKDF2_ITERATIONS: %w", err)
		}
		cfg.PBKDF2.Iterations = n
	}

	if v, ok := os.LookupEnv("WARDEN_PASSWORD_MIN_LEN"); ok {
		n, err := atoiPositiveInt(v, 1, 1024)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := os.LookupEnv("WARDEN_PASSWORD_MAX_LEN"); ok {
		n, err := atoiPositiveInt(v, 1, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	for _, b := range []struct {
		key string
		dst *bool
	}{
		{"WARDEN_PASSWORD_REJECT_VERY_WEAK", &cfg.Policy.RejectVeryWeak},
		{"WARDEN_PASSWORD_REQUIRE_DIGIT", &cfg.Policy.RequireDigit},
		{"WARDEN_PASSWORD_REQUIRE_LETTER", &cfg.Policy.RequireLetter},
	} {
		v, ok := os.LookupEnv(b.key)
		if !ok {
			continue
		}
		parsed, err := ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", b.key, err)
		}
		*b.dst = parsed
	}

	if v, ok := os.LookupEnv("WARDEN_ARGON2_MEMORY_KIB"); ok {
		u, err := atou32(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Argon2id.MemoryKiB = u
	}

	if v, ok := os.LookupEnv("WARDEN_ARGON2_ITERATIONS"); ok {
		u, err := atou32(v, 1, 20)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_ARGON2_ITERATIONS: %w", err)
		}
		cfg.Argon2id.Iterations = u
	}

	if v, ok := os.LookupEnv("WARDEN_ARGON2_PARALLELISM"); ok {
		u, err := atou32(v, 1, 64)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_ARGON2_PARALLELISM: %w", err)
		}
		p, err := u32ToU8(u)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Argon2id.Parallelism = p
	}

	if v, ok := os.LookupEnv("WARDEN_ARGON2_SALT_LEN"); ok {
		u, err := atou32(v, 8, 64)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_ARGON2_SALT_LEN: %w", err)
		}
		cfg.Argon2id.SaltLength = u
	}

	if v, ok := os.LookupEnv("WARDEN_ARGON2_KEY_LEN"); ok {
		u, err := atou32(v, 16, 64)
		if err != nil {
			return Config{}, fmt.Errorf("WARDEN_ARGON2_KEY_LEN: %w", err)
		}
		cfg.Argon2id.KeyLength = u
	}

	if err := cfg.Check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Check reports configuration that cannot produce usable hashes.
func (c Config) Check() error {
	switch c.Algorithm {
	case AlgorithmPBKDF2, AlgorithmArgon2id:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, c.Algorithm)
	}
	if c.PBKDF2.Iterations <= 0 || c.PBKDF2.Iterations > maxPBKDF2Iterations {
		return fmt.Errorf("pbkdf2 iterations out of range [1..%d]", maxPBKDF2Iterations)
	}
	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}
	return nil
}

func atoiPositiveInt(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}

	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}

// ParseBool accepts the usual on/off spellings used in env files.
func ParseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
