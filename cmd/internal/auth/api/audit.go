package authapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// audit emits a structured auth event with request metadata. Credentials and
// codes never reach this function.
func (h *Handler) audit(ctx context.Context, r *http.Request, action, userKey string, attrs ...slog.Attr) {
	action = strings.TrimSpace(action)
	if h == nil || action == "" {
		return
	}

	base := make([]slog.Attr, 0, len(attrs)+3)
	if userKey != "" {
		base = append(base, slog.String("user_key", userKey))
	}
	if ip := clientIP(r, h.cfg.TrustProxy); ip != nil {
		base = append(base, slog.String("ip", ip.String()))
	}
	if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
		base = append(base, slog.String("user_agent", ua))
	}
	base = append(base, attrs...)

	h.log.LogAttrs(ctx, slog.LevelInfo, action, base...)
}
