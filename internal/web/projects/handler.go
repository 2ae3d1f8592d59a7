// Package projects provides HTTP handlers for project management.
package projects

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/good-yellow-bee/subhub/internal/metrics"
	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/storage"
	"github.com/good-yellow-bee/subhub/internal/uploads"
	"github.com/good-yellow-bee/subhub/internal/web/middleware"
	"github.com/good-yellow-bee/subhub/internal/web/render"
)

const maxUploadSize = 32 << 20 // 32 MB

// Handler handles project HTTP requests.
type Handler struct {
	storage  storage.Storage
	uploads  *uploads.Store
	renderer *render.Renderer
}

// NewHandler creates a new project handler.
func NewHandler(store storage.Storage, up *uploads.Store, renderer *render.Renderer) *Handler {
	return &Handler{
		storage:  store,
		uploads:  up,
		renderer: renderer,
	}
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// jsonOK writes a JSON response with status 200.
func jsonOK(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

// pageFor builds the shared page chrome from the request identity.
func pageFor(r *http.Request, title string) *render.Page {
	ctx := r.Context()
	return &render.Page{
		Title:         title,
		Username:      middleware.GetUsername(ctx),
		Authenticated: middleware.IsAuthenticated(ctx),
		IsAdmin:       middleware.GetRole(ctx) == models.RoleAdmin,
	}
}

// List handles GET /projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.storage.Projects().List(r.Context())
	if err != nil {
		log.Printf("list projects: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		jsonOK(w, list)
		return
	}

	page := pageFor(r, "Projects")
	page.Data = list
	h.renderer.Render(w, http.StatusOK, "projects.html", page)
}

// detailData is the template payload for a single project page.
type detailData struct {
	Project  *models.Project   `json:"project"`
	Episodes []*models.Episode `json:"episodes"`
}

// Detail handles GET /projects/{slug}. The project has already been
// resolved by ProjectCtx.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	episodes, err := h.storage.Episodes().ListByProject(r.Context(), project.ID)
	if err != nil {
		log.Printf("list episodes for %q: %v", project.Name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := detailData{Project: project, Episodes: episodes}
	if wantsJSON(r) {
		jsonOK(w, data)
		return
	}

	page := pageFor(r, project.Name)
	page.Data = data
	h.renderer.Render(w, http.StatusOK, "project.html", page)
}

// NewForm handles GET /projects/new-project. An unverified admin is
// answered as if the page did not exist.
func (h *Handler) NewForm(w http.ResponseWriter, r *http.Request) {
	switch middleware.ManageProjects(r.Context()) {
	case middleware.DeniedAsNotFound:
		http.Error(w, "Not found", http.StatusNotFound)
		return
	case middleware.DeniedAsForbidden:
		if !middleware.IsAuthenticated(r.Context()) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	h.renderer.Render(w, http.StatusOK, "project_new.html", pageFor(r, "New Project"))
}

// formFromRequest collects the submitted text fields. The cover only
// ever arrives as the "cover" file part; a client-supplied "image" text
// field is a stale artifact of the old calling convention and is never
// read.
func formFromRequest(r *http.Request) *form {
	return &form{
		Name:           r.FormValue("name"),
		EnglishName:    r.FormValue("englishName"),
		JapaneseName:   r.FormValue("japaneseName"),
		Summary:        r.FormValue("summary"),
		Process:        r.FormValue("process"),
		EpisodesNumber: r.FormValue("episodesNumber"),
		Genre:          r.FormValue("genre"),
	}
}

// stageCover writes an uploaded cover image to the upload dir and
// returns its generated name. A missing file part or a file rejected by
// the content-type allow-list both come back as the empty name.
func (h *Handler) stageCover(w http.ResponseWriter, r *http.Request) (string, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return "", false
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return "", false
		}
		return "", true
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return "", false
	}
	defer file.Close()

	name, err := h.uploads.Stage(file, header)
	if err != nil {
		log.Printf("stage cover: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return "", false
	}
	return name, true
}

// discardStaged removes a staged cover after a failed request so the
// upload dir only holds files referenced by a stored project.
func (h *Handler) discardStaged(name string) {
	if err := h.uploads.Discard(name); err != nil {
		log.Printf("discard staged cover %s: %v", name, err)
	}
}

// Create handles POST /projects. The cover file is staged before any
// check runs and discarded again on every failure path.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	coverName, ok := h.stageCover(w, r)
	if !ok {
		return
	}

	p, err := validate(formFromRequest(r))
	if err != nil {
		h.discardStaged(coverName)
		metrics.ProjectOpsTotal.WithLabelValues("create", "invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch middleware.ManageProjects(ctx) {
	case middleware.DeniedAsNotFound:
		h.discardStaged(coverName)
		metrics.ProjectOpsTotal.WithLabelValues("create", "denied").Inc()
		http.Error(w, "Not found", http.StatusNotFound)
		return
	case middleware.DeniedAsForbidden:
		h.discardStaged(coverName)
		metrics.ProjectOpsTotal.WithLabelValues("create", "denied").Inc()
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// Fast-path uniqueness check. The store constraint below is the
	// authoritative guard.
	existing, err := h.storage.Projects().GetByName(ctx, p.Name)
	if err != nil {
		h.discardStaged(coverName)
		log.Printf("check project %q: %v", p.Name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		h.discardStaged(coverName)
		metrics.ProjectOpsTotal.WithLabelValues("create", "duplicate").Inc()
		http.Error(w, "Project already exist", http.StatusBadRequest)
		return
	}

	project := &models.Project{
		ID:             uuid.New().String(),
		Name:           p.Name,
		EnglishName:    p.EnglishName,
		JapaneseName:   p.JapaneseName,
		Summary:        p.Summary,
		Process:        p.Process,
		EpisodesNumber: p.EpisodesNumber,
		Genre:          p.Genre,
		AddedBy:        middleware.GetUserID(ctx),
	}
	if coverName != "" {
		project.CoverImageName = &coverName
	}

	if err := h.storage.Projects().Create(ctx, project); err != nil {
		h.discardStaged(coverName)
		if errors.Is(err, storage.ErrDuplicateName) {
			metrics.ProjectOpsTotal.WithLabelValues("create", "duplicate").Inc()
			http.Error(w, "Project already exist", http.StatusBadRequest)
			return
		}
		log.Printf("create project %q: %v", p.Name, err)
		metrics.ProjectOpsTotal.WithLabelValues("create", "error").Inc()
		http.Error(w, "could not create project", http.StatusBadRequest)
		return
	}

	metrics.ProjectOpsTotal.WithLabelValues("create", "success").Inc()
	http.Redirect(w, r, "/projects", http.StatusFound)
}

// Update handles PUT /projects/{slug}. Only a freshly staged file can
// change the cover; a submitted "image" text value is ignored, and the
// previous cover file stays on disk after a replacement.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := models.NameFromSlug(chi.URLParam(r, "slug"))

	coverName, ok := h.stageCover(w, r)
	if !ok {
		return
	}

	p, err := validate(formFromRequest(r))
	if err != nil {
		h.discardStaged(coverName)
		metrics.ProjectOpsTotal.WithLabelValues("update", "invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch middleware.ManageProjects(ctx) {
	case middleware.DeniedAsNotFound:
		h.discardStaged(coverName)
		metrics.ProjectOpsTotal.WithLabelValues("update", "denied").Inc()
		http.Error(w, "Not found", http.StatusNotFound)
		return
	case middleware.DeniedAsForbidden:
		h.discardStaged(coverName)
		metrics.ProjectOpsTotal.WithLabelValues("update", "denied").Inc()
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	upd := &models.ProjectUpdate{
		Name:           p.Name,
		EnglishName:    p.EnglishName,
		JapaneseName:   p.JapaneseName,
		Summary:        p.Summary,
		Process:        p.Process,
		EpisodesNumber: p.EpisodesNumber,
		Genre:          p.Genre,
	}
	if coverName != "" {
		upd.CoverImageName = &coverName
	}

	updated, err := h.storage.Projects().UpdateByName(ctx, name, upd)
	if err != nil {
		h.discardStaged(coverName)
		if errors.Is(err, storage.ErrDuplicateName) {
			metrics.ProjectOpsTotal.WithLabelValues("update", "duplicate").Inc()
			http.Error(w, "Project already exist", http.StatusBadRequest)
			return
		}
		log.Printf("update project %q: %v", name, err)
		metrics.ProjectOpsTotal.WithLabelValues("update", "error").Inc()
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		h.discardStaged(coverName)
		metrics.ProjectOpsTotal.WithLabelValues("update", "missing").Inc()
		http.Error(w, "Project Not Found", http.StatusNotFound)
		return
	}

	metrics.ProjectOpsTotal.WithLabelValues("update", "success").Inc()
	jsonOK(w, updated)
}

// Delete handles DELETE /projects/{slug}. A miss answers 401 with the
// literal body "error"; a hit removes the cover file alongside the
// record.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := models.NameFromSlug(chi.URLParam(r, "slug"))

	switch middleware.ManageProjects(ctx) {
	case middleware.DeniedAsNotFound:
		metrics.ProjectOpsTotal.WithLabelValues("delete", "denied").Inc()
		http.Error(w, "Not found", http.StatusNotFound)
		return
	case middleware.DeniedAsForbidden:
		metrics.ProjectOpsTotal.WithLabelValues("delete", "denied").Inc()
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	deleted, err := h.storage.Projects().DeleteByName(ctx, name)
	if err != nil {
		log.Printf("delete project %q: %v", name, err)
	}
	if err != nil || deleted == nil {
		metrics.ProjectOpsTotal.WithLabelValues("delete", "missing").Inc()
		http.Error(w, "error", http.StatusUnauthorized)
		return
	}

	if deleted.CoverImageName != nil {
		// Removal failures are logged only; the record is already gone.
		if err := h.uploads.Discard(*deleted.CoverImageName); err != nil {
			log.Printf("discard cover %s: %v", *deleted.CoverImageName, err)
		}
	}

	metrics.ProjectOpsTotal.WithLabelValues("delete", "success").Inc()
	jsonOK(w, deleted)
}
