// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/web/auth"
)

// Context keys for storing user information.
type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
	roleKey     contextKey = "role"
	verifiedKey contextKey = "verified"
	claimsKey   contextKey = "claims"
)

// Identify returns middleware that attaches the caller's identity to the
// request context when a valid token is presented, via either a Bearer
// header or the session cookie. Requests without a usable token proceed
// anonymously; route policy decides what anonymous callers may do.
func Identify(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if c, err := r.Cookie(auth.TokenCookie); err == nil {
					tokenString = c.Value
				}
			}
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				log.Printf("token rejected for %s: %v", r.RemoteAddr, err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, usernameKey, claims.Username)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			ctx = context.WithValue(ctx, verifiedKey, claims.Verified)
			ctx = context.WithValue(ctx, claimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// GetUserID returns the user ID from context.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(userIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUsername returns the username from context.
func GetUsername(ctx context.Context) string {
	if v := ctx.Value(usernameKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole returns the user role from context.
func GetRole(ctx context.Context) models.Role {
	if v := ctx.Value(roleKey); v != nil {
		if r, ok := v.(models.Role); ok {
			return r
		}
	}
	return ""
}

// IsVerified returns the verified flag from context.
func IsVerified(ctx context.Context) bool {
	if v := ctx.Value(verifiedKey); v != nil {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// IsAuthenticated reports whether the request carries a valid identity.
func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

// GetClaims returns the JWT claims from context.
func GetClaims(ctx context.Context) *auth.Claims {
	if v := ctx.Value(claimsKey); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}

// WithIdentity attaches an identity to a context directly. Used by tests
// and the CLI.
func WithIdentity(ctx context.Context, userID, username string, role models.Role, verified bool) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, usernameKey, username)
	ctx = context.WithValue(ctx, roleKey, role)
	ctx = context.WithValue(ctx, verifiedKey, verified)
	return ctx
}
