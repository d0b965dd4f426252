// Package credentials runs password strength validation and hashing for any
// record type that carries a password hash.
//
// Validators run in registration order and the first failure wins. Hashing and
// verification delegate to a password.Hasher; nothing here persists records.
package credentials
