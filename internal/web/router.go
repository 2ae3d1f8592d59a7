package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/web/auth"
	"github.com/good-yellow-bee/subhub/internal/web/episodes"
	"github.com/good-yellow-bee/subhub/internal/web/middleware"
	"github.com/good-yellow-bee/subhub/internal/web/projects"
	"github.com/good-yellow-bee/subhub/internal/web/render"
	"github.com/good-yellow-bee/subhub/internal/web/users"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.AccessTokenTTL)
	lockoutTracker := auth.NewLockoutTracker(s.config.LockoutThreshold, s.config.LockoutDuration)
	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)

	authHandler := auth.NewHandler(s.storage, jwtService, lockoutTracker, s.config.RefreshTokenTTL, s.config.UseSecureCookies)
	projectHandler := projects.NewHandler(s.storage, s.uploads, s.renderer)
	episodeHandler := episodes.NewHandler(s.storage)
	userHandler := users.NewHandler(s.storage, authHandler.Tokens(), s.renderer)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)
	if s.config.RequireHTTPS {
		r.Use(middleware.RequireHTTPS)
	}
	r.Use(middleware.Identify(jwtService))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/projects", http.StatusFound)
	})

	// Project and episode routes
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", projectHandler.List)
		r.Get("/new-project", projectHandler.NewForm)
		r.Post("/", projectHandler.Create)

		r.Route("/{slug}", func(r chi.Router) {
			// Update and delete resolve the name themselves; their miss
			// responses differ from the shared project lookup.
			r.With(middleware.ProjectCtx(s.storage)).Get("/", projectHandler.Detail)
			r.Put("/", projectHandler.Update)
			r.Delete("/", projectHandler.Delete)

			r.Route("/episodes", func(r chi.Router) {
				r.Use(middleware.ProjectCtx(s.storage))
				r.Get("/", episodeHandler.List)
				r.Post("/", episodeHandler.Create)

				r.Route("/{number}", func(r chi.Router) {
					r.Get("/", episodeHandler.Get)
					r.Put("/", episodeHandler.Update)
					r.Delete("/", episodeHandler.Delete)
				})
			})
		})
	})

	// Browser-facing auth forms, CSRF protected
	csrfMiddleware := csrf.Protect(
		s.config.CSRFSecret,
		csrf.Secure(s.config.UseSecureCookies),
		csrf.Path("/"),
	)
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)

		r.Get("/login", s.showLogin)
		r.Get("/register", s.showRegister)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ipLimiter))
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
		})
	})
	r.Post("/logout", authHandler.Logout)

	// JSON auth API, no CSRF
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ipLimiter))
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})
		r.Post("/logout", authHandler.Logout)
	})

	// Account routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated)
		r.Get("/user", userHandler.Me)
		r.Get("/users/me", userHandler.Me)
		r.Post("/users/me/password", userHandler.ChangePassword)
	})

	// Operator routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/users", userHandler.List)
		r.Post("/users/{id}/verify", userHandler.Verify)
	})

	// Cover images; unknown names fall back to the placeholder
	r.Get("/uploads/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !s.uploads.Exists(name) {
			http.Redirect(w, r, "/static/images/no-image.png", http.StatusFound)
			return
		}
		http.ServeFile(w, r, s.uploads.Path(name))
	})

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", render.StaticFS()))

	// Health checks
	r.Get("/healthz", s.healthHandler.Health)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "uploads") {
			http.Redirect(w, r, "/static/images/no-image.png", http.StatusFound)
			return
		}
		s.renderer.Render(w, http.StatusNotFound, "notfound.html", s.pageFor(r, "Not Found"))
	})

	return r
}

// pageFor builds the shared page chrome from the request identity.
func (s *Server) pageFor(r *http.Request, title string) *render.Page {
	ctx := r.Context()
	return &render.Page{
		Title:         title,
		Username:      middleware.GetUsername(ctx),
		Authenticated: middleware.IsAuthenticated(ctx),
		IsAdmin:       middleware.GetRole(ctx) == models.RoleAdmin,
	}
}

func (s *Server) showLogin(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/projects", http.StatusFound)
		return
	}
	page := s.pageFor(r, "Login")
	page.CSRFField = csrf.TemplateField(r)
	if code := r.URL.Query().Get("error"); code != "" {
		page.Error = loginErrorMessage(code)
	}
	s.renderer.Render(w, http.StatusOK, "login.html", page)
}

func (s *Server) showRegister(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/projects", http.StatusFound)
		return
	}
	page := s.pageFor(r, "Register")
	page.CSRFField = csrf.TemplateField(r)
	s.renderer.Render(w, http.StatusOK, "register.html", page)
}

// loginErrorMessage maps redirect error codes to user-facing text.
func loginErrorMessage(code string) string {
	switch code {
	case "ACCOUNT_LOCKED":
		return "Too many failed attempts. Try again later."
	case "UNAUTHORIZED":
		return "Invalid username or password."
	default:
		return "Login failed."
	}
}
