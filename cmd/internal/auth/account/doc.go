// Package account sequences warden's user-facing flows: registration, login,
// password change and reset, email confirmation, logout and account deletion.
//
// Domain outcomes (wrong password, email taken, locked out, bad code) are
// returned as identity.Failure values inside a Result. Go errors are reserved
// for precondition violations and storage or transport failures.
package account
