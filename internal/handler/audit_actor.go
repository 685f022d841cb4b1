package handler

import (
	"net"
	"net/http"
	"strings"

	"devboard-trash/internal/middleware"
	"devboard-trash/internal/model"
)

// actorFromRequest resolves the acting admin from the auth claims plus the
// client address. Missing claims yield an anonymous actor rather than an
// error; the route guards decide who gets in.
func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: clientIP(r)}

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actor.UserID = claims.UserID
		actor.Username = claims.Username
		actor.Role = claims.Role
	}

	return actor
}

func clientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	return r.RemoteAddr
}
