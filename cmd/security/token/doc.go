// Package token provides hashing for single-use token identities before they are stored.
//
// Stored values are never the plain token:
// - SHA-256(token) when no HMAC key is configured (dev).
// - HMAC-SHA256(token, key) when WARDEN_TOKEN_HMAC_KEY is set.
//
// Output is always a 64-char hex string suitable for constant-time comparison.
package token
