package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minJWTSecretBytes = 32

type jwtTicketClaims struct {
	jwt.RegisteredClaims
	Stamp        string           `json:"stm,omitempty"`
	ValidatedAt  *jwt.NumericDate `json:"vat,omitempty"`
	AllowRefresh bool             `json:"rfr,omitempty"`
	Persistent   bool             `json:"pst,omitempty"`
}

// JWTCodec seals tickets as HS256 JWTs.
type JWTCodec struct {
	issuer    string
	clockSkew time.Duration
	secret    []byte
}

// NewJWTCodec builds a codec keyed by cfg.JWTSecret (at least 32 bytes).
func NewJWTCodec(cfg Config) (*JWTCodec, error) {
	if len(cfg.JWTSecret) < minJWTSecretBytes {
		return nil, ErrConfig
	}
	return &JWTCodec{
		issuer:    cfg.Issuer,
		clockSkew: cfg.ClockSkew,
		secret:    []byte(cfg.JWTSecret),
	}, nil
}

func (c *JWTCodec) Seal(t Ticket) (string, error) {
	claims := jwtTicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   t.UserKey,
			IssuedAt:  jwt.NewNumericDate(t.Properties.IssuedAt),
			NotBefore: jwt.NewNumericDate(t.Properties.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(t.Properties.ExpiresAt),
		},
		Stamp:        t.SecurityStamp,
		ValidatedAt:  jwt.NewNumericDate(t.ValidatedAt),
		AllowRefresh: t.Properties.AllowRefresh,
		Persistent:   t.Properties.Persistent,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *JWTCodec) Open(blob string, now time.Time) (Ticket, error) {
	var claims jwtTicketClaims
	_, err := jwt.ParseWithClaims(blob, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Ticket{}, errors.Join(ErrTicketInvalid, err)
	}

	t := Ticket{
		UserKey:       claims.Subject,
		SecurityStamp: claims.Stamp,
		Properties: Properties{
			AllowRefresh: claims.AllowRefresh,
			Persistent:   claims.Persistent,
		},
	}
	if claims.ValidatedAt != nil {
		t.ValidatedAt = claims.ValidatedAt.UTC()
	}
	if claims.IssuedAt != nil {
		t.Properties.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		t.Properties.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return t, nil
}
