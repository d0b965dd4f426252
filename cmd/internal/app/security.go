package app

import (
	"errors"

	"warden/cmd/security/token"
)

// tokenHasher returns the digest used for stored single-use tokens and
// enforces RequireTokenHMAC.
func tokenHasher(cfg Config) (token.Hasher, error) {
	h, err := token.HasherFromEnv()
	switch {
	case errors.Is(err, token.ErrHMACKeyTooShort):
		return token.Hasher{}, errors.New("security policy: WARDEN_TOKEN_HMAC_KEY is too short (min 32 bytes)")
	case err != nil:
		return token.Hasher{}, err
	}

	if cfg.RequireTokenHMAC && !h.Keyed() {
		return token.Hasher{}, errors.New("security policy: WARDEN_REQUIRE_TOKEN_HMAC=true but WARDEN_TOKEN_HMAC_KEY is missing")
	}
	return h, nil
}
