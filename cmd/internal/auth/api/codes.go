package authapi

import (
	"context"
	"log/slog"

	"warden/cmd/internal/auth/verify"
)

// CodeMessage is the payload handed to a CodeSender for delivery.
type CodeMessage struct {
	UserKey string
	Email   string
	Purpose verify.Purpose
	Code    string
}

// CodeSender delivers verification codes out of band (email, SMS, ...).
type CodeSender interface {
	SendCode(ctx context.Context, msg CodeMessage) error
}

// CodeSenderFunc adapts a function to CodeSender.
type CodeSenderFunc func(ctx context.Context, msg CodeMessage) error

func (f CodeSenderFunc) SendCode(ctx context.Context, msg CodeMessage) error { return f(ctx, msg) }

// LogCodeSender records that a code would have been delivered. The code
// itself is never logged. It is the default until a real provider is wired.
type LogCodeSender struct {
	Log *slog.Logger
}

func (s LogCodeSender) SendCode(ctx context.Context, msg CodeMessage) error {
	l := s.Log
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "auth.code.delivery_skipped",
		slog.String("user_key", msg.UserKey),
		slog.String("purpose", string(msg.Purpose)),
	)
	return nil
}
