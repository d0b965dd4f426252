package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/lockout"
	"warden/cmd/internal/auth/onetime"
	"warden/cmd/security/token"
)

// backends holds the selected persistence for each store and the clients
// that back them. The app owns the pool and the redis client.
type backends struct {
	users    identity.Store
	lockouts lockout.Store
	tokens   onetime.Store

	pool  *pgxpool.Pool
	redis *redis.Client

	usersBackend  string
	volatileStore string
}

// newBackends picks Postgres for users when a database is configured,
// Redis for lockouts and single-use tokens when a Redis URL is configured,
// falling back to Postgres and then memory.
func newBackends(ctx context.Context, cfg Config, lockoutCfg lockout.Config, hasher token.Hasher, log Logger) (*backends, error) {
	b := &backends{usersBackend: "memory", volatileStore: "memory"}

	if cfg.DatabaseURL != "" {
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.pool = pool

		if cfg.DBMigrate {
			if err := Migrate(ctx, pool); err != nil {
				b.Close()
				return nil, err
			}
			log.Info("db.migrated")
		}
	}
	if cfg.RedisURL != "" {
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.redis = client
	}

	if err := b.selectStores(lockoutCfg, hasher); err != nil {
		b.Close()
		return nil, err
	}

	log.Info("stores.selected", "users", b.usersBackend, "lockout_tokens", b.volatileStore)
	return b, nil
}

func (b *backends) selectStores(lockoutCfg lockout.Config, hasher token.Hasher) error {
	switch {
	case b.pool != nil:
		users, err := identity.NewPostgresStore(b.pool)
		if err != nil {
			return err
		}
		b.users, b.usersBackend = users, "postgres"
	default:
		b.users = identity.NewMemoryStore()
	}

	switch {
	case b.redis != nil:
		lk, err := lockout.NewRedisStore(b.redis, "warden:lockout:", lockoutCfg.Window)
		if err != nil {
			return err
		}
		tk, err := onetime.NewRedisStore(b.redis, "warden:token:", onetime.WithHasher(hasher))
		if err != nil {
			return err
		}
		b.lockouts, b.tokens, b.volatileStore = lk, tk, "redis"
	case b.pool != nil:
		lk, err := lockout.NewPostgresStore(b.pool, identity.DefaultSchema)
		if err != nil {
			return err
		}
		tk, err := onetime.NewPostgresStore(b.pool, identity.DefaultSchema, onetime.WithHasher(hasher))
		if err != nil {
			return err
		}
		b.lockouts, b.tokens, b.volatileStore = lk, tk, "postgres"
	default:
		b.lockouts = lockout.NewMemoryStore()
		b.tokens = onetime.NewMemoryStore(onetime.WithHasher(hasher))
	}
	return nil
}

// Close releases the redis client and the pool.
func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}
