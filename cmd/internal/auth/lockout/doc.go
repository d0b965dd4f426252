// Package lockout tracks failed sign-in attempts per key and bans a key for a
// fixed duration once too many failures land inside a sliding window.
//
// The window is anchored on the last failure: every failure while unlocked
// touches LastModified. Once MaxAttempts is reached the key is locked until
// Expiration and further checks neither count nor extend the ban.
//
// Store updates are read-modify-write without version checks. Under concurrent
// failures for the same key the counter may undercount (last writer wins).
package lockout
