// Package identity holds warden's user record, the narrow capability
// interfaces the auth components depend on, and the user store boundary.
//
// The record is owned by the embedding application. Auth components only
// read it and set the password hash, security stamp and confirmation flag.
package identity
