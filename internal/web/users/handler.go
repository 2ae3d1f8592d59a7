// Package users provides HTTP handlers for account settings and
// operator user management.
package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/storage"
	"github.com/good-yellow-bee/subhub/internal/web/auth"
	"github.com/good-yellow-bee/subhub/internal/web/middleware"
	"github.com/good-yellow-bee/subhub/internal/web/render"
)

// Error codes for API responses.
const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeUnauthorized  = "UNAUTHORIZED"
	errCodeNotFound      = "NOT_FOUND"
	errCodeInternalError = "INTERNAL_ERROR"
)

// Handler handles user account HTTP requests.
type Handler struct {
	storage  storage.Storage
	tokens   *auth.TokenService
	renderer *render.Renderer
}

// NewHandler creates a new user handler.
func NewHandler(store storage.Storage, tokens *auth.TokenService, renderer *render.Renderer) *Handler {
	return &Handler{
		storage:  store,
		tokens:   tokens,
		renderer: renderer,
	}
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func jsonOK(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// Me handles GET /users/me. It renders the settings page, or the
// account record for JSON clients.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.storage.Users().GetByID(ctx, middleware.GetUserID(ctx))
	if err != nil {
		log.Printf("load user %s: %v", middleware.GetUserID(ctx), err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not load account")
		return
	}
	if user == nil {
		// Token outlived the account.
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "account no longer exists")
		return
	}

	if wantsJSON(r) {
		jsonOK(w, user)
		return
	}

	page := &render.Page{
		Title:         "Settings",
		Username:      user.Username,
		Authenticated: true,
		IsAdmin:       user.IsAdmin(),
		Data:          user,
	}
	h.renderer.Render(w, http.StatusOK, "settings.html", page)
}

// passwordChange is the payload for ChangePassword, accepted as JSON or
// form fields.
type passwordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func readPasswordChange(r *http.Request) (*passwordChange, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req passwordChange
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.New("invalid request body")
		}
		return &req, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, errors.New("invalid form data")
	}
	return &passwordChange{
		CurrentPassword: r.PostFormValue("currentPassword"),
		NewPassword:     r.PostFormValue("newPassword"),
	}, nil
}

// ChangePassword handles POST /users/me/password. A successful change
// revokes every refresh token the account holds.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	req, err := readPasswordChange(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "currentPassword and newPassword are required")
		return
	}

	user, err := h.storage.Users().GetByID(ctx, userID)
	if err != nil || user == nil {
		log.Printf("load user %s: %v", userID, err)
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "account no longer exists")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "current password is incorrect")
		return
	}

	if err := auth.ValidatePasswordOrError(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("hash password for %s: %v", userID, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not update password")
		return
	}

	user.PasswordHash = string(hash)
	if err := h.storage.Users().Update(ctx, user); err != nil {
		log.Printf("update user %s: %v", userID, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not update password")
		return
	}

	// Existing sessions on other devices must log in again.
	if err := h.tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		log.Printf("revoke tokens for %s: %v", userID, err)
	}

	if wantsJSON(r) || strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		jsonOK(w, map[string]string{"status": "password changed"})
		return
	}
	http.Redirect(w, r, "/users/me", http.StatusFound)
}

// List handles GET /admin/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.storage.Users().List(r.Context())
	if err != nil {
		log.Printf("list users: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not list users")
		return
	}
	if list == nil {
		list = []*models.User{}
	}
	jsonOK(w, list)
}

// Verify handles POST /admin/users/{id}/verify. Verification is what
// lets an admin account manage projects.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	user, err := h.storage.Users().GetByID(ctx, id)
	if err != nil {
		log.Printf("load user %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not load user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "user not found")
		return
	}

	if err := h.storage.Users().SetVerified(ctx, id, true); err != nil {
		log.Printf("verify user %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not verify user")
		return
	}

	user.Verified = true
	jsonOK(w, user)
}
