package password

import "strings"

// VerifyResult is the outcome of checking a candidate password against a stored hash.
type VerifyResult struct {
	Valid bool
	// UpdateHash is only ever true together with Valid. It means the stored
	// hash used weaker parameters than the current configuration.
	UpdateHash bool
}

// Hasher produces and checks stored password hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) VerifyResult
}

type formatHasher interface {
	Hasher
	recognizes(encoded string) bool
}

// NewHasher returns the hasher selected by cfg.Algorithm.
//
// Hashes produced by the other supported algorithm still verify; a successful
// match reports UpdateHash so callers migrate them on the next login.
func NewHasher(cfg Config) (Hasher, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	pb := NewPBKDF2Hasher(cfg.PBKDF2)
	ar := NewArgon2idHasher(cfg.Argon2id)

	switch cfg.Algorithm {
	case AlgorithmArgon2id:
		return migratingHasher{primary: ar, legacy: pb}, nil
	default:
		return migratingHasher{primary: pb, legacy: ar}, nil
	}
}

type migratingHasher struct {
	primary formatHasher
	legacy  formatHasher
}

func (m migratingHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m migratingHasher) Verify(encoded, password string) VerifyResult {
	if m.legacy != nil && !m.primary.recognizes(encoded) && m.legacy.recognizes(encoded) {
		res := m.legacy.Verify(encoded, password)
		res.UpdateHash = res.Valid
		return res
	}
	return m.primary.Verify(encoded, password)
}

func checkPlain(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrEmptyPassword
	}
	return nil
}
