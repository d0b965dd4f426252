// Package testdb opens opt-in integration backends for package tests.
//
// Postgres tests require WARDEN_DATABASE_URL and Redis tests require
// WARDEN_REDIS_URL. Outside CI, an unreachable backend skips the test.
package testdb

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// OpenPool connects to WARDEN_DATABASE_URL or skips the test.
func OpenPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("WARDEN_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: WARDEN_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse WARDEN_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	// Validate acquire quickly (fast fail).
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if ShouldSkip(err) {
			t.Skipf("integration test skipped: Postgres unreachable (WARDEN_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	t.Cleanup(pool.Close)
	return pool
}

// NewSchema creates a throwaway schema with the full warden table set and
// drops it when the test ends.
func NewSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "warden_it_" + randomSuffix(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, `CREATE SCHEMA `+pgx.Identifier{schema}.Sanitize()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
	})

	if _, err := pool.Exec(ctx, SchemaSQL(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return schema
}

// SchemaSQL returns the table DDL for schema. It mirrors cmd/internal/migrations.
func SchemaSQL(schema string) string {
	users := pgx.Identifier{schema, "users"}.Sanitize()
	lockouts := pgx.Identifier{schema, "lockouts"}.Sanitize()
	tokens := pgx.Identifier{schema, "one_time_tokens"}.Sanitize()

	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  user_key TEXT PRIMARY KEY,
  email TEXT NULL,
  email_norm TEXT NULL,
  email_confirmed BOOLEAN NOT NULL DEFAULT false,
  password_hash TEXT NOT NULL DEFAULT '',
  security_stamp TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  last_login_at TIMESTAMPTZ NULL,
  CONSTRAINT uq_users_email_norm UNIQUE (email_norm)
);

CREATE TABLE IF NOT EXISTS %s (
  lockout_key TEXT PRIMARY KEY,
  last_modified TIMESTAMPTZ NOT NULL,
  failed_attempts INTEGER NOT NULL CHECK (failed_attempts >= 1),
  expiration TIMESTAMPTZ NULL
);

CREATE TABLE IF NOT EXISTS %s (
  token_hash TEXT PRIMARY KEY,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  expires_at TIMESTAMPTZ NOT NULL,
  consumed_at TIMESTAMPTZ NULL,
  CONSTRAINT chk_one_time_tokens_hash_len CHECK (char_length(token_hash) = 64)
);
`, users, lockouts, tokens)
}

// OpenRedis connects to WARDEN_REDIS_URL or skips the test.
func OpenRedis(t *testing.T) *redis.Client {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("WARDEN_REDIS_URL"))
	if raw == "" {
		t.Skip("integration test skipped: WARDEN_REDIS_URL is not set")
	}

	opts, err := redis.ParseURL(raw)
	if err != nil {
		t.Fatalf("parse WARDEN_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if ShouldSkip(err) {
			t.Skipf("integration test skipped: Redis unreachable (WARDEN_REDIS_URL set): %v", err)
		}
		t.Fatalf("redis ping: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Prefix returns a unique key prefix so parallel tests never share Redis keys.
func Prefix(t *testing.T) string {
	t.Helper()
	return "warden_it:" + randomSuffix(t) + ":"
}

// ShouldSkip reports connection-level failures that mean "backend not running".
func ShouldSkip(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}

func randomSuffix(t *testing.T) string {
	t.Helper()

	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return hex.EncodeToString(b)
}
