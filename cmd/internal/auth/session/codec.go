package session

import "time"

// Codec seals tickets into opaque strings and opens them again.
//
// Open returns ErrTicketInvalid for anything it cannot verify. A verified
// token with missing claims opens into a Ticket with zero fields; the
// Authenticator rejects it.
type Codec interface {
	Seal(t Ticket) (string, error)
	Open(blob string, now time.Time) (Ticket, error)
}

// NewCodec builds the codec selected by cfg.Codec.
func NewCodec(cfg Config) (Codec, error) {
	switch cfg.Codec {
	case CodecPaseto:
		return NewPasetoCodec(cfg)
	case CodecJWT:
		return NewJWTCodec(cfg)
	default:
		return nil, ErrConfig
	}
}
