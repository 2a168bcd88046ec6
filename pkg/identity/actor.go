// Package identity resolves the actor behind a request: a logged-in user id
// when upstream auth supplied one, otherwise the normalized client IP.
// Reaction dedup keys off this identity, so the two kinds are kept as a
// tagged value rather than a bare string, so an IP that happens to look like
// a numeric user id can never collide with that user.
package identity

import (
	"net"
	"net/http"
	"strings"

	"agora/pkg/models"
)

// UserIDHeader is set by the gateway's auth middleware for logged-in
// requests. This service trusts it; it never sees raw credentials.
const UserIDHeader = "X-User-ID"

// Actor is the identity a reaction is deduplicated against.
type Actor struct {
	Kind models.ActorKind
	Key  string
}

// IsZero reports whether no identity could be resolved.
func (a Actor) IsZero() bool {
	return a.Key == ""
}

// User builds a user-kind actor from an authenticated user id.
func User(userID string) Actor {
	return Actor{Kind: models.ActorUser, Key: userID}
}

// Anonymous builds an anonymous actor from a normalized client IP.
func Anonymous(ip string) Actor {
	return Actor{Kind: models.ActorAnonymous, Key: ip}
}

// FromRequest resolves the actor for an HTTP request. An authenticated
// user id wins; otherwise the client IP is used. The zero Actor means
// neither was resolvable and the request should be rejected upstream.
func FromRequest(r *http.Request) Actor {
	if r == nil {
		return Actor{}
	}
	if userID := strings.TrimSpace(r.Header.Get(UserIDHeader)); userID != "" {
		return User(userID)
	}
	if ip := ClientIPFromRequest(r); ip != "" {
		return Anonymous(ip)
	}
	return Actor{}
}

// ClientIPFromRequest extracts the best-effort client IP from headers.
func ClientIPFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
