package authapi

import (
	"net"
	"net/http"
	"strings"

	"warden/cmd/identity"
)

func toUserResponse(u *identity.User) userResponse {
	return userResponse{
		Key:            u.Key,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		CreatedAt:      u.CreatedAt,
		LastLoginAt:    u.LastLoginAt,
	}
}

var failureStatus = map[identity.FailureCode]int{
	identity.FailureInvalidCredentials: http.StatusUnauthorized,
	identity.FailureNotAuthenticated:   http.StatusUnauthorized,
	identity.FailureEmailNotAvailable:  http.StatusConflict,
	identity.FailureLockedOut:          http.StatusTooManyRequests,
	identity.FailureInvalidCode:        http.StatusBadRequest,
	identity.FailureWeakPassword:       http.StatusUnprocessableEntity,
}

func writeFailure(w http.ResponseWriter, f *identity.Failure) {
	status, ok := failureStatus[f.Code]
	if !ok {
		status = http.StatusBadRequest
	}
	writeError(w, status, string(f.Code), f.Message)
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
