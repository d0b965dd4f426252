package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// HMACEnvKey is the env var name for the token HMAC secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	HMACEnvKey = "WARDEN_TOKEN_HMAC_KEY"

	// MinHMACKeyBytes is the minimum accepted key size when HMAC is required.
	MinHMACKeyBytes = 32
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HMACKeyFromEnv returns the configured HMAC key bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrHMACKeyMissing.
// If too short -> ErrHMACKeyTooShort.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// Hasher hashes token identities with a fixed key.
// A nil or empty key means plain SHA-256.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher bound to key (may be nil).
func NewHasher(key []byte) Hasher {
	return Hasher{key: append([]byte(nil), key...)}
}

// HasherFromEnv builds a Hasher from WARDEN_TOKEN_HMAC_KEY.
// A missing key falls back to SHA-256; a present but short key is an error.
func HasherFromEnv() (Hasher, error) {
	key, err := HMACKeyFromEnv(MinHMACKeyBytes)
	switch err {
	case nil:
		return NewHasher(key), nil
	case ErrHMACKeyMissing:
		return NewHasher(nil), nil
	default:
		return Hasher{}, err
	}
}

// Hex returns the 64-char hex digest of s.
func (h Hasher) Hex(s string) string {
	if len(h.key) == 0 {
		return HashSHA256Hex(s)
	}
	return HashHMACSHA256Hex(s, h.key)
}

// Keyed reports whether HMAC mode is active.
func (h Hasher) Keyed() bool { return len(h.key) > 0 }

// EqualHex64 compares two 64-char hex digests in constant time.
// Any other length never matches.
func EqualHex64(a, b string) bool {
	if len(a) != 64 || len(b) != 64 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
