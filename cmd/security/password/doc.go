// Package password provides credential hashing and verification for warden.
//
// Two hashers are available:
// - PBKDF2-HMAC-SHA256 (default): "<iterations>.<base64(salt||key)>"
// - Argon2id: PHC-like "$argon2id$v=19$m=..,t=..,p=..$<salt>$<key>"
//
// Verify never fails with an error on malformed input. A hash that cannot be
// parsed simply does not match. VerifyResult.UpdateHash reports that the stored
// hash was produced with weaker settings (or another algorithm) than the
// current configuration and should be replaced after a successful login.
//
// Security notes:
// - Hash strings are treated as untrusted input and are bounds-checked before any KDF work.
// - Policy holds the length/weakness rules used by the strength validators.
package password
