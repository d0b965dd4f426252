package session

import (
	"errors"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

// PasetoCodec seals tickets as PASETO v4.public tokens.
type PasetoCodec struct {
	issuer    string
	clockSkew time.Duration

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// NewPasetoCodec builds a codec from the Ed25519 key in cfg.PasetoSecretKeyHex.
func NewPasetoCodec(cfg Config) (*PasetoCodec, error) {
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoSecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &PasetoCodec{
		issuer:    cfg.Issuer,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
		public:    secret.Public(),
	}, nil
}

// PublicKeyHex exposes the verification key.
func (c *PasetoCodec) PublicKeyHex() string {
	return c.public.ExportHex()
}

func (c *PasetoCodec) Seal(t Ticket) (string, error) {
	tok := paseto.NewToken()
	tok.SetIssuer(c.issuer)
	tok.SetIssuedAt(t.Properties.IssuedAt)
	tok.SetNotBefore(t.Properties.IssuedAt)
	tok.SetExpiration(t.Properties.ExpiresAt)
	tok.SetSubject(t.UserKey)
	tok.SetTime("vat", t.ValidatedAt)

	if err := tok.Set("stm", t.SecurityStamp); err != nil {
		return "", err
	}
	if err := tok.Set("rfr", t.Properties.AllowRefresh); err != nil {
		return "", err
	}
	if err := tok.Set("pst", t.Properties.Persistent); err != nil {
		return "", err
	}

	return tok.V4Sign(c.secret, nil), nil
}

func (c *PasetoCodec) Open(blob string, now time.Time) (Ticket, error) {
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(c.issuer))
	// iat and nbf tolerate a faster issuing clock; exp is checked against now.
	p.AddRule(notIssuedAfter(now.Add(c.clockSkew)))
	p.AddRule(notExpiredAt(now))

	parsed, err := p.ParseV4Public(c.public, blob, nil)
	if err != nil {
		return Ticket{}, ErrTicketInvalid
	}

	var t Ticket
	t.UserKey, _ = parsed.GetSubject()
	t.SecurityStamp, _ = parsed.GetString("stm")
	if vat, err := parsed.GetTime("vat"); err == nil {
		t.ValidatedAt = vat.UTC()
	}
	if iat, err := parsed.GetIssuedAt(); err == nil {
		t.Properties.IssuedAt = iat.UTC()
	}
	if exp, err := parsed.GetExpiration(); err == nil {
		t.Properties.ExpiresAt = exp.UTC()
	}
	_ = parsed.Get("rfr", &t.Properties.AllowRefresh)
	_ = parsed.Get("pst", &t.Properties.Persistent)

	return t, nil
}

func notIssuedAfter(limit time.Time) paseto.Rule {
	return func(tok paseto.Token) error {
		iat, err := tok.GetIssuedAt()
		if err != nil {
			return err
		}
		if iat.After(limit) {
			return errors.New("ticket issued in the future")
		}
		nbf, err := tok.GetNotBefore()
		if err != nil {
			return err
		}
		if nbf.After(limit) {
			return errors.New("ticket not yet valid")
		}
		return nil
	}
}

func notExpiredAt(now time.Time) paseto.Rule {
	return func(tok paseto.Token) error {
		exp, err := tok.GetExpiration()
		if err != nil {
			return err
		}
		if !now.Before(exp) {
			return errors.New("ticket expired")
		}
		return nil
	}
}
