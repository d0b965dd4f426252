package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2SaltLen = 16
	pbkdf2KeyLen  = 32
	pbkdf2Sep     = "."

	// Upper bound on iterations accepted from a stored hash (anti-DoS).
	maxPBKDF2Iterations = 10_000_000
)

// PBKDF2Hasher hashes with PBKDF2-HMAC-SHA256.
//
// Format: <iterations>.<base64(salt16 || key32)>
type PBKDF2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher returns a hasher using p.Iterations (clamped to at least 1).
func NewPBKDF2Hasher(p PBKDF2Params) *PBKDF2Hasher {
	it := p.Iterations
	if it <= 0 {
		it = DefaultConfig().PBKDF2.Iterations
	}
	if it > maxPBKDF2Iterations {
		it = maxPBKDF2Iterations
	}
	return &PBKDF2Hasher{iterations: it}
}

// Iterations returns the configured iteration count.
func (h *PBKDF2Hasher) Iterations() int { return h.iterations }

// Hash derives a key from password and a fresh random salt.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	if err := checkPlain(password); err != nil {
		return "", err
	}

	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, pbkdf2KeyLen, sha256.New)

	payload := make([]byte, 0, pbkdf2SaltLen+pbkdf2KeyLen)
	payload = append(payload, salt...)
	payload = append(payload, key...)

	return strconv.Itoa(h.iterations) + pbkdf2Sep + base64.StdEncoding.EncodeToString(payload), nil
}

// Verify re-derives with the stored salt and stored iteration count.
// Malformed input never errors; it simply does not match.
func (h *PBKDF2Hasher) Verify(encoded, password string) VerifyResult {
	iterations, salt, expected, err := decodePBKDF2(encoded)
	if err != nil {
		return VerifyResult{}
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, pbkdf2KeyLen, sha256.New)
	if subtle.ConstantTimeCompare(key, expected) != 1 {
		return VerifyResult{}
	}

	return VerifyResult{
		Valid:      true,
		UpdateHash: h.iterations > iterations,
	}
}

func (h *PBKDF2Hasher) recognizes(encoded string) bool {
	_, _, _, err := decodePBKDF2(encoded)
	return err == nil
}

func decodePBKDF2(encoded string) (int, []byte, []byte, error) {
	itRaw, payloadRaw, ok := strings.Cut(encoded, pbkdf2Sep)
	if !ok || itRaw == "" || payloadRaw == "" {
		return 0, nil, nil, ErrInvalidHash
	}

	// Digits only: Atoi would otherwise accept a leading sign.
	for _, r := range itRaw {
		if r < '0' || r > '9' {
			return 0, nil, nil, ErrInvalidHash
		}
	}
	iterations, err := strconv.Atoi(itRaw)
	if err != nil || iterations <= 0 || iterations > maxPBKDF2Iterations {
		return 0, nil, nil, ErrInvalidHash
	}

	payload, err := base64.StdEncoding.DecodeString(payloadRaw)
	if err != nil || len(payload) != pbkdf2SaltLen+pbkdf2KeyLen {
		return 0, nil, nil, ErrInvalidHash
	}

	return iterations, payload[:pbkdf2SaltLen], payload[pbkdf2SaltLen:], nil
}
