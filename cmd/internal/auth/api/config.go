package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior and cookie security defaults.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	SessionCookieName string
	CSRFCookieName    string
	CSRFHeaderName    string
	CookiePath        string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite
}

// DefaultConfig returns production-safe defaults.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:      1 << 20, // 1 MiB
		SessionCookieName: "warden_session",
		CSRFCookieName:    "warden_csrf",
		CSRFHeaderName:    "X-CSRF-Token",
		CookiePath:        "/",
		CookieSecure:      true,
		CookieSameSite:    http.SameSiteLaxMode,
	}
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		TrustProxy:        envBool("WARDEN_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:      envInt64("WARDEN_AUTH_MAX_BODY_BYTES", def.MaxBodyBytes),
		SessionCookieName: envString("WARDEN_SESSION_COOKIE_NAME", def.SessionCookieName),
		CSRFCookieName:    envString("WARDEN_CSRF_COOKIE_NAME", def.CSRFCookieName),
		CSRFHeaderName:    envString("WARDEN_CSRF_HEADER_NAME", def.CSRFHeaderName),
		CookiePath:        envString("WARDEN_COOKIE_PATH", def.CookiePath),
		CookieDomain:      envString("WARDEN_COOKIE_DOMAIN", ""),
		CookieSecure:      envBool("WARDEN_COOKIE_SECURE", def.CookieSecure),
		CookieSameSite:    parseSameSite(os.Getenv("WARDEN_COOKIE_SAMESITE")),
	}
	return cfg.normalized()
}

// normalized applies guardrails: distinct cookie names and Secure with SameSite=None.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	if c.SessionCookieName == "" {
		c.SessionCookieName = def.SessionCookieName
	}
	if c.CSRFCookieName == "" || c.CSRFCookieName == c.SessionCookieName {
		c.CSRFCookieName = c.SessionCookieName + "_csrf"
	}
	if c.CSRFHeaderName == "" {
		c.CSRFHeaderName = def.CSRFHeaderName
	}
	if c.CookiePath == "" {
		c.CookiePath = "/"
	}
	if c.CookieSameSite == http.SameSiteNoneMode {
		c.CookieSecure = true
	}
	return c
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteLaxMode
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
