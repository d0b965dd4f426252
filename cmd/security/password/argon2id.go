package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = 19 // argon2.Version is 0x13 (19)
)

// Argon2idHasher hashes with Argon2id.
//
// Format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
type Argon2idHasher struct {
	params Argon2idParams
}

// NewArgon2idHasher returns an Argon2id hasher with sane minima applied to p.
func NewArgon2idHasher(p Argon2idParams) *Argon2idHasher {
	if p.Parallelism == 0 {
		p.Parallelism = 1
	}
	if p.Iterations == 0 {
		p.Iterations = 1
	}
	if p.MemoryKiB < 8*1024 {
		p.MemoryKiB = 8 * 1024
	}
	if p.SaltLength < 8 {
		p.SaltLength = 16
	}
	if p.KeyLength < 16 {
		p.KeyLength = 32
	}
	return &Argon2idHasher{params: p}
}

// Hash hashes a password and returns the encoded hash string.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if err := checkPlain(password); err != nil {
		return "", err
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Iterations,
		h.params.MemoryKiB,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify checks password against encoded. Malformed or out-of-bounds hashes do not match.
func (h *Argon2idHasher) Verify(encoded, password string) VerifyResult {
	params, salt, expected, err := decodeArgon2id(encoded)
	if err != nil {
		return VerifyResult{}
	}

	// Anti-DoS: refuse attacker-sized parameters.
	if !withinReasonableBounds(params, h.params) {
		return VerifyResult{}
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- expected length is bounded by withinReasonableBounds.
	)

	if subtle.ConstantTimeCompare(key, expected) != 1 {
		return VerifyResult{}
	}
	return VerifyResult{Valid: true, UpdateHash: weakerThan(params, h.params)}
}

func (h *Argon2idHasher) recognizes(encoded string) bool {
	return strings.HasPrefix(encoded, "$argon2id$")
}

func weakerThan(got, want Argon2idParams) bool {
	return got.MemoryKiB < want.MemoryKiB ||
		got.Iterations < want.Iterations ||
		got.Parallelism < want.Parallelism ||
		got.SaltLength < want.SaltLength ||
		got.KeyLength < want.KeyLength
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Older/smaller settings verify; wildly larger settings are refused.
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if uint32(got.Parallelism) > uint32(limits.Parallelism)*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// decodeArgon2id parses the encoded hash and returns params, salt and expected key.
func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != "v=19" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	if !strings.HasPrefix(parts[3], "m=") {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),        // #nosec G115 -- checked <= 255 above.
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by withinReasonableBounds.
		KeyLength:   uint32(len(hash)), // #nosec G115 -- bounded by withinReasonableBounds.
	}
	return params, salt, hash, nil
}
