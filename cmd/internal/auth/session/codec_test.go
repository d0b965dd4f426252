package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func testCodecs(t *testing.T) map[string]Codec {
	t.Helper()

	cfg := DefaultConfig()
	cfg.PasetoSecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	cfg.JWTSecret = strings.Repeat("k", 32)

	pc, err := NewPasetoCodec(cfg)
	if err != nil {
		t.Fatalf("NewPasetoCodec: %v", err)
	}
	jc, err := NewJWTCodec(cfg)
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	return map[string]Codec{CodecPaseto: pc, CodecJWT: jc}
}

func sampleTicket(now time.Time) Ticket {
	return Ticket{
		UserKey:       "01HZZZZZZZZZZZZZZZZZZZZZZZ",
		SecurityStamp: "8f0c1d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f",
		ValidatedAt:   now,
		Properties: Properties{
			IssuedAt:     now.Add(-time.Hour),
			ExpiresAt:    now.Add(24 * time.Hour),
			AllowRefresh: true,
			Persistent:   true,
		},
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	for name, c := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleTicket(now)
			blob, err := c.Seal(want)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}

			got, err := c.Open(blob, now.Add(time.Second))
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if got.UserKey != want.UserKey || got.SecurityStamp != want.SecurityStamp {
				t.Fatalf("claims mismatch: %+v", got)
			}
			if !got.ValidatedAt.Equal(want.ValidatedAt) {
				t.Fatalf("validated at: got %v want %v", got.ValidatedAt, want.ValidatedAt)
			}
			if !got.Properties.IssuedAt.Equal(want.Properties.IssuedAt) || !got.Properties.ExpiresAt.Equal(want.Properties.ExpiresAt) {
				t.Fatalf("properties mismatch: %+v", got.Properties)
			}
			if !got.Properties.AllowRefresh || !got.Properties.Persistent {
				t.Fatalf("flags lost: %+v", got.Properties)
			}
		})
	}
}

func TestCodecs_RejectTamperedAndExpired(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	for name, c := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			blob, err := c.Seal(sampleTicket(now))
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}

			tampered := blob[:len(blob)-4] + "AAAA"
			if tampered == blob {
				tampered = blob[:len(blob)-4] + "BBBB"
			}
			if _, err := c.Open(tampered, now); !errors.Is(err, ErrTicketInvalid) {
				t.Fatalf("tampered: expected ErrTicketInvalid, got %v", err)
			}

			if _, err := c.Open("garbage", now); !errors.Is(err, ErrTicketInvalid) {
				t.Fatalf("garbage: expected ErrTicketInvalid, got %v", err)
			}

			if _, err := c.Open(blob, now.Add(48*time.Hour)); !errors.Is(err, ErrTicketInvalid) {
				t.Fatalf("expired: expected ErrTicketInvalid, got %v", err)
			}
		})
	}
}

func TestCodecs_RejectOtherIssuer(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	secret := paseto.NewV4AsymmetricSecretKey().ExportHex()

	a := DefaultConfig()
	a.PasetoSecretKeyHex = secret
	a.JWTSecret = strings.Repeat("k", 32)
	b := a
	b.Issuer = "someone-else"

	for _, codec := range []string{CodecPaseto, CodecJWT} {
		a.Codec, b.Codec = codec, codec
		ca, err := NewCodec(a)
		if err != nil {
			t.Fatalf("NewCodec(%s): %v", codec, err)
		}
		cb, err := NewCodec(b)
		if err != nil {
			t.Fatalf("NewCodec(%s): %v", codec, err)
		}

		blob, err := cb.Seal(sampleTicket(now))
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		if _, err := ca.Open(blob, now); !errors.Is(err, ErrTicketInvalid) {
			t.Fatalf("%s: expected ErrTicketInvalid for foreign issuer, got %v", codec, err)
		}
	}
}

func TestNewCodec_BadKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PasetoSecretKeyHex = "not-hex"
	if _, err := NewCodec(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for bad paseto key, got %v", err)
	}

	cfg.Codec = CodecJWT
	cfg.JWTSecret = "short"
	if _, err := NewCodec(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for short jwt secret, got %v", err)
	}

	cfg.Codec = "xml"
	if _, err := NewCodec(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for unknown codec, got %v", err)
	}
}

func TestCodecs_SkewToleratesEarlyIssue(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	for name, c := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			tk := sampleTicket(now)
			// Issued by a node whose clock runs 10s ahead, expiring 10s from here.
			tk.Properties.IssuedAt = now.Add(10 * time.Second)
			tk.Properties.ExpiresAt = now.Add(10 * time.Second)

			blob, err := c.Seal(tk)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if _, err := c.Open(blob, now); err != nil {
				t.Fatalf("Open inside skew and before exp: %v", err)
			}
			if _, err := c.Open(blob, now.Add(9*time.Second)); err != nil {
				t.Fatalf("Open just before exp: %v", err)
			}
		})
	}
}

func TestPasetoCodec_ExpiryIsExact(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	c := testCodecs(t)[CodecPaseto]

	tk := sampleTicket(now)
	tk.Properties.ExpiresAt = now.Add(10 * time.Second)
	blob, err := c.Seal(tk)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := c.Open(blob, now.Add(10*time.Second)); !errors.Is(err, ErrTicketInvalid) {
		t.Fatalf("expected ErrTicketInvalid at exp, got %v", err)
	}

	tk.Properties.IssuedAt = now.Add(time.Minute)
	blob, err = c.Seal(tk)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := c.Open(blob, now); !errors.Is(err, ErrTicketInvalid) {
		t.Fatalf("expected ErrTicketInvalid for iat beyond skew, got %v", err)
	}
}
