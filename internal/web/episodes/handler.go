// Package episodes provides HTTP handlers for the episode resources
// nested under a project.
package episodes

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/storage"
	"github.com/good-yellow-bee/subhub/internal/web/middleware"
)

// Error codes for API responses.
const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeNotFound      = "NOT_FOUND"
	errCodeConflict      = "CONFLICT"
	errCodeInternalError = "INTERNAL_ERROR"
)

// Handler handles episode HTTP requests. Every route runs below
// ProjectCtx, so the parent project is always resolved.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new episode handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
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

func jsonCreated(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(payload)
}

// episodeNumber parses the {number} URL parameter.
func episodeNumber(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "number"))
}

// deny writes the denial for a failed project-management check and
// reports whether the request was denied.
func deny(w http.ResponseWriter, d middleware.Decision) bool {
	switch d {
	case middleware.DeniedAsNotFound:
		http.Error(w, "Not found", http.StatusNotFound)
		return true
	case middleware.DeniedAsForbidden:
		http.Error(w, "Forbidden", http.StatusForbidden)
		return true
	}
	return false
}

// List handles GET /projects/{slug}/episodes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	episodes, err := h.storage.Episodes().ListByProject(r.Context(), project.ID)
	if err != nil {
		log.Printf("list episodes for %q: %v", project.Name, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not list episodes")
		return
	}
	if episodes == nil {
		episodes = []*models.Episode{}
	}
	jsonOK(w, episodes)
}

// Get handles GET /projects/{slug}/episodes/{number}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	number, err := episodeNumber(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "episode number must be a number")
		return
	}

	episode, err := h.storage.Episodes().GetByNumber(r.Context(), project.ID, number)
	if err != nil {
		log.Printf("get episode %d of %q: %v", number, project.Name, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not load episode")
		return
	}
	if episode == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "episode not found")
		return
	}
	jsonOK(w, episode)
}

// episodeRequest is the JSON payload for create and update.
type episodeRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Link   string `json:"link"`
}

// readEpisode decodes and validates the request body. Status defaults
// to translating when omitted.
func readEpisode(r *http.Request) (*episodeRequest, error) {
	var req episodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body")
	}
	if req.Number < 0 {
		return nil, errors.New("number must not be negative")
	}
	if req.Status == "" {
		req.Status = string(models.StatusTranslating)
	}
	if !models.ValidEpisodeStatus(models.EpisodeStatus(req.Status)) {
		return nil, errors.New("unknown status")
	}
	return &req, nil
}

// Create handles POST /projects/{slug}/episodes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := middleware.GetProject(ctx)

	if deny(w, middleware.ManageProjects(ctx)) {
		return
	}

	req, err := readEpisode(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	episode := &models.Episode{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Number:    req.Number,
		Title:     req.Title,
		Status:    models.EpisodeStatus(req.Status),
		Link:      req.Link,
	}

	if err := h.storage.Episodes().Create(ctx, episode); err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			jsonError(w, http.StatusConflict, errCodeConflict, "episode number already exists")
			return
		}
		log.Printf("create episode %d of %q: %v", req.Number, project.Name, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not create episode")
		return
	}

	jsonCreated(w, episode)
}

// Update handles PUT /projects/{slug}/episodes/{number}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := middleware.GetProject(ctx)

	if deny(w, middleware.ManageProjects(ctx)) {
		return
	}

	number, err := episodeNumber(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "episode number must be a number")
		return
	}

	req, err := readEpisode(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	upd := &models.EpisodeUpdate{
		Title:  req.Title,
		Status: models.EpisodeStatus(req.Status),
		Link:   req.Link,
	}

	episode, err := h.storage.Episodes().UpdateByNumber(ctx, project.ID, number, upd)
	if err != nil {
		log.Printf("update episode %d of %q: %v", number, project.Name, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not update episode")
		return
	}
	if episode == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "episode not found")
		return
	}
	jsonOK(w, episode)
}

// Delete handles DELETE /projects/{slug}/episodes/{number}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := middleware.GetProject(ctx)

	if deny(w, middleware.ManageProjects(ctx)) {
		return
	}

	number, err := episodeNumber(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "episode number must be a number")
		return
	}

	episode, err := h.storage.Episodes().DeleteByNumber(ctx, project.ID, number)
	if err != nil {
		log.Printf("delete episode %d of %q: %v", number, project.Name, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "could not delete episode")
		return
	}
	if episode == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "episode not found")
		return
	}
	jsonOK(w, episode)
}
