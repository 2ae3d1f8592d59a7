package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/subhub/internal/metrics"
	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/storage"
)

// Cookie names used for browser sessions.
const (
	TokenCookie   = "token"
	RefreshCookie = "refresh_token"
)

// Handler handles authentication endpoints. Browser form posts get
// cookies and redirects; JSON requests get token payloads.
type Handler struct {
	storage        storage.Storage
	jwtService     *JWTService
	tokenService   *TokenService
	lockoutTracker *LockoutTracker
	secureCookies  bool
}

// NewHandler creates a new auth handler.
func NewHandler(store storage.Storage, jwt *JWTService, lockout *LockoutTracker, refreshTTL time.Duration, secureCookies bool) *Handler {
	return &Handler{
		storage:        store,
		jwtService:     jwt,
		tokenService:   NewTokenService(store, refreshTTL),
		lockoutTracker: lockout,
		secureCookies:  secureCookies,
	}
}

// Tokens returns the refresh token service.
func (h *Handler) Tokens() *TokenService {
	return h.tokenService
}

// Response helpers (local to avoid import cycle with web package)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Error codes and messages
const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeUnauthorized  = "UNAUTHORIZED"
	errCodeConflict      = "CONFLICT"
	errCodeAccountLocked = "ACCOUNT_LOCKED"
	errCodeInternalError = "INTERNAL_ERROR"
)

// LoginResponse is returned on successful JSON login.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// readCredentials pulls username/password/email from either a JSON body
// or a form post.
func readCredentials(r *http.Request) (*credentials, error) {
	if isJSON(r) {
		var c credentials
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return nil, err
		}
		return &c, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Email:    r.PostFormValue("email"),
	}, nil
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.jwtService.TTLSeconds(),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.tokenService.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{TokenCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Login handles user login for both form posts and JSON clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := readCredentials(r)
	if err != nil {
		h.loginFailure(w, r, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		h.loginFailure(w, r, http.StatusBadRequest, errCodeBadRequest, "username and password required")
		return
	}

	if h.lockoutTracker.IsLocked(req.Username) {
		remaining := h.lockoutTracker.RemainingLockoutTime(req.Username)
		log.Printf("login blocked: account %s locked for %v", req.Username, remaining)
		metrics.AuthAttemptsTotal.WithLabelValues("locked").Inc()
		h.loginFailure(w, r, http.StatusTooManyRequests, errCodeAccountLocked, "account temporarily locked due to too many failed attempts")
		return
	}

	ctx := r.Context()
	user, err := h.storage.Users().GetByUsername(ctx, req.Username)
	if err != nil {
		log.Printf("login error: get user: %v", err)
		h.loginFailure(w, r, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if user == nil {
		h.lockoutTracker.RecordFailure(req.Username)
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		log.Printf("login failed: user %s not found", req.Username)
		h.loginFailure(w, r, http.StatusUnauthorized, errCodeUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.lockoutTracker.RecordFailure(req.Username)
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		log.Printf("login failed: invalid password for user %s", req.Username)
		h.loginFailure(w, r, http.StatusUnauthorized, errCodeUnauthorized, "invalid credentials")
		return
	}

	h.lockoutTracker.ClearFailures(req.Username)

	accessToken, err := h.jwtService.GenerateToken(user)
	if err != nil {
		log.Printf("login error: generate access token: %v", err)
		h.loginFailure(w, r, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	refreshToken, err := h.tokenService.CreateRefreshToken(ctx, user.ID)
	if err != nil {
		log.Printf("login error: generate refresh token: %v", err)
		h.loginFailure(w, r, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	metrics.AuthTokensIssued.WithLabelValues("access").Inc()
	metrics.AuthTokensIssued.WithLabelValues("refresh").Inc()
	log.Printf("login success: user %s", req.Username)

	h.setSessionCookies(w, accessToken, refreshToken)

	if isJSON(r) {
		jsonOK(w, &LoginResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    h.jwtService.TTLSeconds(),
			TokenType:    "Bearer",
		})
		return
	}
	http.Redirect(w, r, "/projects", http.StatusFound)
}

// loginFailure reports a failed login in the shape the client expects.
func (h *Handler) loginFailure(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if isJSON(r) {
		jsonError(w, status, code, message)
		return
	}
	http.Redirect(w, r, "/login?error="+code, http.StatusFound)
}

// Register creates a new unverified member account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := readCredentials(r)
	if err != nil {
		h.registerFailure(w, r, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		h.registerFailure(w, r, http.StatusBadRequest, errCodeBadRequest, "username, email and password required")
		return
	}

	if err := ValidatePasswordOrError(req.Password); err != nil {
		h.registerFailure(w, r, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("register error: hash password: %v", err)
		h.registerFailure(w, r, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	user := models.NewUser(req.Username, req.Email, models.RoleMember)
	user.ID = uuid.New().String()
	user.PasswordHash = string(hash)

	if err := h.storage.Users().Create(r.Context(), user); err != nil {
		if err == storage.ErrDuplicateName {
			h.registerFailure(w, r, http.StatusBadRequest, errCodeConflict, "username or email already taken")
			return
		}
		log.Printf("register error: create user: %v", err)
		h.registerFailure(w, r, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("registered user %s (unverified)", user.Username)

	if isJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dataResponse{Data: user})
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) registerFailure(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if isJSON(r) {
		jsonError(w, status, code, message)
		return
	}
	http.Redirect(w, r, "/register?error="+code, http.StatusFound)
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshTokenFrom finds the refresh token in the JSON body or the
// session cookie.
func (h *Handler) refreshTokenFrom(r *http.Request) string {
	if isJSON(r) {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			return req.RefreshToken
		}
		return ""
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		return c.Value
	}
	return ""
}

// Refresh rotates the refresh token and issues a new access token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	plain := h.refreshTokenFrom(r)
	if plain == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "refresh_token required")
		return
	}

	ctx := r.Context()

	user, err := h.tokenService.ValidateRefreshToken(ctx, plain)
	if err != nil {
		log.Printf("refresh failed: %v", err)
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "invalid or expired token")
		return
	}

	accessToken, err := h.jwtService.GenerateToken(user)
	if err != nil {
		log.Printf("refresh error: generate access token: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	newRefreshToken, err := h.tokenService.RotateRefreshToken(ctx, plain, user.ID)
	if err != nil {
		log.Printf("refresh error: rotate refresh token: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.AuthTokensIssued.WithLabelValues("access").Inc()
	metrics.AuthTokensIssued.WithLabelValues("refresh").Inc()
	log.Printf("token refresh success: user %s", user.Username)

	h.setSessionCookies(w, accessToken, newRefreshToken)

	jsonOK(w, &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    h.jwtService.TTLSeconds(),
		TokenType:    "Bearer",
	})
}

// Logout revokes the refresh token and clears session cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	plain := h.refreshTokenFrom(r)
	if plain != "" {
		if err := h.tokenService.RevokeRefreshToken(r.Context(), plain); err != nil {
			log.Printf("logout error: revoke token: %v", err)
			// Token might already be revoked
		}
	}

	h.clearSessionCookies(w)
	log.Printf("logout success")

	if isJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
