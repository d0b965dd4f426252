package session

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RevalidationInterval != 30*time.Minute {
		t.Fatalf("revalidation interval mismatch: %v", cfg.RevalidationInterval)
	}
	if cfg.Codec != CodecPaseto {
		t.Fatalf("codec mismatch: %q", cfg.Codec)
	}
}

func TestLoadConfigFromEnv_InvalidDurations(t *testing.T) {
	t.Setenv("WARDEN_SESSION_REVALIDATION_INTERVAL", "-5m")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig for negative duration, got %v", err)
	}
}

func TestLoadConfigFromEnv_ZeroIntervalRejected(t *testing.T) {
	t.Setenv("WARDEN_SESSION_REVALIDATION_INTERVAL", "0s")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig for zero interval, got %v", err)
	}
}

func TestLoadConfigFromEnv_UnknownCodec(t *testing.T) {
	t.Setenv("WARDEN_SESSION_CODEC", "xml")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig for unknown codec, got %v", err)
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	t.Setenv("WARDEN_SESSION_REVALIDATION_INTERVAL", "10m")
	t.Setenv("WARDEN_SESSION_TICKET_TTL", "48h")
	t.Setenv("WARDEN_SESSION_CODEC", "JWT")
	t.Setenv("WARDEN_SESSION_ISSUER", "warden-test")
	t.Setenv("WARDEN_SESSION_CLOCK_SKEW", "0s")
	t.Setenv("WARDEN_SESSION_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RevalidationInterval != 10*time.Minute {
		t.Fatalf("interval mismatch: %v", cfg.RevalidationInterval)
	}
	if cfg.TicketTTL != 48*time.Hour {
		t.Fatalf("ticket ttl mismatch: %v", cfg.TicketTTL)
	}
	if cfg.Codec != CodecJWT {
		t.Fatalf("codec mismatch: %q", cfg.Codec)
	}
	if cfg.Issuer != "warden-test" {
		t.Fatalf("issuer mismatch: %q", cfg.Issuer)
	}
	if cfg.ClockSkew != 0 {
		t.Fatalf("clock skew mismatch: %v", cfg.ClockSkew)
	}
	if cfg.JWTSecret == "" {
		t.Fatalf("jwt secret not loaded")
	}
}
