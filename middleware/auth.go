// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/messvote/auth"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/models"
)

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying the session claims.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom returns the claims stored by RequireStudent or RequireAdmin.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok && c != nil
}

// BearerToken extracts the session token from the Authorization header.
// Browsers cannot set headers on a websocket handshake, so the token query
// parameter is accepted as a fallback.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// RequireStudent rejects requests without a valid student session. clk
// must be the clock the login handlers issue tokens with.
func RequireStudent(secret string, clk clock.Clock, next http.HandlerFunc) http.HandlerFunc {
	return requireRole(secret, clk, models.RoleStudent, next)
}

// RequireAdmin rejects requests without a valid admin session.
func RequireAdmin(secret string, clk clock.Clock, next http.HandlerFunc) http.HandlerFunc {
	return requireRole(secret, clk, models.RoleAdmin, next)
}

// RequireSession accepts any valid session regardless of role.
func RequireSession(secret string, clk clock.Clock, next http.HandlerFunc) http.HandlerFunc {
	return requireRole(secret, clk, "", next)
}

func requireRole(secret string, clk clock.Clock, role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Missing session token")
			return
		}

		claims, err := auth.ParseToken(secret, token, clk.Now())
		if err != nil {
			slog.Debug("rejected session token", "path", r.URL.Path, "error", err)
			ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired session token")
			return
		}
		if role != "" && claims.Role != role {
			ErrorResponse(w, http.StatusForbidden, "Session does not have access to this resource")
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}
