package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config contains the process-level runtime configuration. Component
// settings (password, lockout, codes, session, cookies) are read by their
// own packages.
type Config struct {
	HTTPAddr  string `toml:"http_addr"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	ReadHeaderTimeout time.Duration `toml:"read_header_timeout"`
	ReadTimeout       time.Duration `toml:"read_timeout"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	IdleTimeout       time.Duration `toml:"idle_timeout"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout"`
	MaxHeaderBytes    int           `toml:"max_header_bytes"`

	DatabaseURL string `toml:"database_url"`
	DBMaxConns  int32  `toml:"db_max_conns"`
	DBMinConns  int32  `toml:"db_min_conns"`
	// DBMigrate applies the embedded migrations at startup.
	DBMigrate bool `toml:"db_migrate"`

	RedisURL string `toml:"redis_url"`

	// If true, /readyz returns 503 unless Postgres is configured and reachable.
	ReadinessRequireDB bool `toml:"readiness_require_db"`

	// If true, WARDEN_TOKEN_HMAC_KEY must be set and stored token digests are keyed.
	RequireTokenHMAC bool `toml:"require_token_hmac"`

	// TokenPurgeInterval is how often expired one-time tokens are deleted
	// from Postgres. Zero disables the sweep.
	TokenPurgeInterval time.Duration `toml:"token_purge_interval"`
}

// DefaultConfig returns the settings used when neither a file nor the
// environment overrides them.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  "0.0.0.0:8080",
		LogLevel:  "info",
		LogFormat: "json",

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxHeaderBytes:    1 << 20,

		DBMaxConns: 10,
		DBMinConns: 0,

		TokenPurgeInterval: time.Hour,
	}
}

// LoadConfig layers defaults, the optional TOML file named by
// WARDEN_CONFIG_FILE and WARDEN_* environment variables, in that order.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := strings.TrimSpace(os.Getenv("WARDEN_CONFIG_FILE")); path != "" {
		var err error
		cfg, err = applyFile(cfg, path)
		if err != nil {
			return Config{}, err
		}
	}

	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg Config, path string) (Config, error) {
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("config file %s: unknown key %q", path, undec[0].String())
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	cfg.HTTPAddr = EnvString("WARDEN_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = EnvString("WARDEN_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = EnvString("WARDEN_LOG_FORMAT", cfg.LogFormat)

	cfg.ReadHeaderTimeout = EnvDuration("WARDEN_HTTP_READ_HEADER_TIMEOUT", cfg.ReadHeaderTimeout)
	cfg.ReadTimeout = EnvDuration("WARDEN_HTTP_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = EnvDuration("WARDEN_HTTP_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = EnvDuration("WARDEN_HTTP_IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.ShutdownTimeout = EnvDuration("WARDEN_HTTP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.MaxHeaderBytes = EnvInt("WARDEN_HTTP_MAX_HEADER_BYTES", cfg.MaxHeaderBytes)

	cfg.DatabaseURL = EnvString("WARDEN_DATABASE_URL", cfg.DatabaseURL)
	cfg.DBMaxConns = EnvInt32("WARDEN_DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = EnvInt32("WARDEN_DB_MIN_CONNS", cfg.DBMinConns)
	cfg.DBMigrate = EnvBool("WARDEN_DB_MIGRATE", cfg.DBMigrate)

	cfg.RedisURL = EnvString("WARDEN_REDIS_URL", cfg.RedisURL)

	cfg.ReadinessRequireDB = EnvBool("WARDEN_READINESS_REQUIRE_DB", cfg.ReadinessRequireDB)
	cfg.RequireTokenHMAC = EnvBool("WARDEN_REQUIRE_TOKEN_HMAC", cfg.RequireTokenHMAC)
	cfg.TokenPurgeInterval = EnvDuration("WARDEN_TOKEN_PURGE_INTERVAL", cfg.TokenPurgeInterval)
	return cfg
}

// Validate rejects settings the runtime cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("config: empty http address")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "json", "text", "pretty":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("config: db_min_conns(%d) > db_max_conns(%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.DBMigrate && c.DatabaseURL == "" {
		return fmt.Errorf("config: db_migrate requires a database url")
	}
	if c.TokenPurgeInterval < 0 {
		return fmt.Errorf("config: negative token_purge_interval %s", c.TokenPurgeInterval)
	}
	return nil
}
