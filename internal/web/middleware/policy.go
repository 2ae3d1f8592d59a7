package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/good-yellow-bee/subhub/internal/models"
)

// Decision is the outcome of an authorization check, including how a
// denial should be presented to the caller.
type Decision int

const (
	// Allowed lets the request through.
	Allowed Decision = iota
	// DeniedAsForbidden denies with an explicit 403.
	DeniedAsForbidden
	// DeniedAsNotFound denies while presenting the resource as absent,
	// hiding the existence of the admin surface from unverified accounts.
	DeniedAsNotFound
)

// ManageProjects decides whether the caller may create, update or
// delete projects. Only admins qualify, and an unverified admin is
// answered as if the page did not exist.
func ManageProjects(ctx context.Context) Decision {
	if GetRole(ctx) != models.RoleAdmin {
		return DeniedAsForbidden
	}
	if !IsVerified(ctx) {
		return DeniedAsNotFound
	}
	return Allowed
}

// jsonForbidden writes a forbidden error response.
func jsonForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "FORBIDDEN",
			"message": "access denied",
		},
	})
}

// RequireRole returns middleware that requires specific roles.
func RequireRole(allowedRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetRole(r.Context())
			if userRole == "" {
				jsonForbidden(w)
				return
			}

			for _, role := range allowedRoles {
				if userRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			// Admin always has access
			if userRole == models.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			jsonForbidden(w)
		})
	}
}

// RequireAdmin is shorthand for RequireRole(RoleAdmin).
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin)(next)
}

// RequireAuthenticated denies anonymous requests with a 403.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r.Context()) {
			jsonForbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
