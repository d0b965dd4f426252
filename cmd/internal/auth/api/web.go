package authapi

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"warden/cmd/internal/auth/session"
)

// cookieTransport carries a sealed session ticket in a cookie for the
// duration of one request. Tickets persisted during the request are visible
// to later reads in the same request. Every persisted ticket also re-issues
// the CSRF cookie with the same lifetime as the session cookie.
type cookieTransport struct {
	cfg   Config
	codec session.Codec
	now   func() time.Time

	w http.ResponseWriter
	r *http.Request

	// pending is the blob written by Persist, or "" after Clear.
	pending    string
	hasPending bool

	// csrf is the token sent with the last Persist. rotateCSRF discards the
	// request's token instead of carrying it forward.
	csrf       string
	rotateCSRF bool
}

func (h *Handler) transport(w http.ResponseWriter, r *http.Request) *cookieTransport {
	return &cookieTransport{cfg: h.cfg, codec: h.codec, now: h.clock.Now, w: w, r: r}
}

// loginTransport is transport with a freshly generated CSRF token.
func (h *Handler) loginTransport(w http.ResponseWriter, r *http.Request) *cookieTransport {
	tr := h.transport(w, r)
	tr.rotateCSRF = true
	return tr
}

func (c *cookieTransport) Persist(_ context.Context, t session.Ticket) error {
	blob, err := c.codec.Seal(t)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     c.cfg.SessionCookieName,
		Value:    blob,
		Path:     c.cfg.CookiePath,
		Domain:   c.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: c.cfg.CookieSameSite,
	}
	// Non-persistent tickets ride in a browser-session cookie.
	if t.Properties.Persistent {
		cookie.Expires = t.Properties.ExpiresAt
	}
	http.SetCookie(c.w, cookie)

	if err := c.persistCSRF(t.Properties); err != nil {
		return err
	}
	c.pending, c.hasPending = blob, true
	return nil
}

func (c *cookieTransport) persistCSRF(props session.Properties) error {
	if c.csrf == "" && !c.rotateCSRF {
		c.csrf, _ = cookieValue(c.r, c.cfg.CSRFCookieName)
	}
	if c.csrf == "" {
		v, err := newOpaqueWebToken(32)
		if err != nil {
			return err
		}
		c.csrf = v
	}
	setCSRFCookie(c.w, c.cfg, c.csrf, props.Persistent, props.ExpiresAt)
	return nil
}

func (c *cookieTransport) Read(_ context.Context) (*session.Ticket, error) {
	blob := ""
	if c.hasPending {
		blob = c.pending
	} else if v, ok := cookieValue(c.r, c.cfg.SessionCookieName); ok {
		blob = v
	}
	if blob == "" {
		return nil, nil
	}

	t, err := c.codec.Open(blob, c.now())
	if err != nil {
		return nil, session.ErrTicketInvalid
	}
	return &t, nil
}

func (c *cookieTransport) Clear(_ context.Context) error {
	expireCookie(c.w, c.cfg, c.cfg.SessionCookieName, true)
	expireCookie(c.w, c.cfg, c.cfg.CSRFCookieName, false)
	c.pending, c.hasPending = "", true
	c.csrf, c.rotateCSRF = "", true
	return nil
}

// setCSRFCookie writes the double-submit token that accompanies a session cookie.
func setCSRFCookie(w http.ResponseWriter, cfg Config, value string, persistent bool, exp time.Time) {
	cookie := &http.Cookie{
		Name:     cfg.CSRFCookieName,
		Value:    value,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		HttpOnly: false,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}
	if persistent {
		cookie.Expires = exp
	}
	http.SetCookie(w, cookie)
}

// csrfDoubleSubmitValid reports whether the CSRF header matches the CSRF cookie.
// Requests without a session cookie have nothing to protect and pass.
func (h *Handler) csrfDoubleSubmitValid(r *http.Request) bool {
	if h == nil || r == nil {
		return false
	}
	if _, ok := cookieValue(r, h.cfg.SessionCookieName); !ok {
		return true
	}
	cv, ok := cookieValue(r, h.cfg.CSRFCookieName)
	if !ok {
		return false
	}
	hv := strings.TrimSpace(r.Header.Get(h.cfg.CSRFHeaderName))
	if hv == "" {
		return false
	}
	return secureStringEqual(cv, hv)
}

func cookieValue(r *http.Request, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

func expireCookie(w http.ResponseWriter, cfg Config, name string, httpOnly bool) {
	if w == nil || strings.TrimSpace(name) == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	})
}

func newOpaqueWebToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func secureStringEqual(a, b string) bool {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
