package account

import (
	"warden/cmd/identity"
	"warden/cmd/internal/auth/verify"
)

// Result is the outcome of a flow. Exactly one of User and Failure is set.
type Result struct {
	User    *identity.User
	Failure *identity.Failure
}

// Succeeded reports whether the flow completed.
func (r Result) Succeeded() bool { return r.Failure == nil }

func succeeded(u *identity.User) Result { return Result{User: u} }

func failed(code identity.FailureCode) Result { return Result{Failure: identity.Fail(code)} }

// Issued is a freshly created verification code and the user it belongs to.
// The caller delivers Code out of band.
type Issued struct {
	User    *identity.User
	Purpose verify.Purpose
	Code    verify.Code
}
