package identity

// FailureCode enumerates domain outcomes that are reported to users rather than raised as errors.
type FailureCode string

const (
	FailureInvalidCredentials FailureCode = "invalid_credentials"
	FailureEmailNotAvailable  FailureCode = "email_not_available"
	FailureLockedOut          FailureCode = "locked_out"
	FailureInvalidCode        FailureCode = "invalid_code"
	FailureWeakPassword       FailureCode = "weak_password"
	FailureNotAuthenticated   FailureCode = "not_authenticated"
)

var failureMessages = map[FailureCode]string{
	FailureInvalidCredentials: "invalid credentials",
	FailureEmailNotAvailable:  "email not available",
	FailureLockedOut:          "locked out",
	FailureInvalidCode:        "invalid verification code",
	FailureWeakPassword:       "password does not meet requirements",
	FailureNotAuthenticated:   "not authenticated",
}

// Failure is a user-facing domain outcome.
type Failure struct {
	Code    FailureCode
	Message string
}

// Fail returns a Failure with the standard message for code.
func Fail(code FailureCode) *Failure {
	return &Failure{Code: code, Message: failureMessages[code]}
}

// WeakPassword returns a weak-password Failure carrying the validator's message.
func WeakPassword(msg string) *Failure {
	if msg == "" {
		return Fail(FailureWeakPassword)
	}
	return &Failure{Code: FailureWeakPassword, Message: msg}
}

func (f *Failure) String() string {
	if f == nil {
		return ""
	}
	return string(f.Code) + ": " + f.Message
}

// Is reports whether f carries code.
func (f *Failure) Is(code FailureCode) bool {
	return f != nil && f.Code == code
}
