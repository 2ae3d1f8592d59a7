package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/storage"
)

const projectKey contextKey = "project"

// ProjectCtx resolves the {slug} URL parameter to a project record and
// stores it in the request context. Hyphens in the slug map back to
// spaces in the project name. Unknown projects get the literal
// "Project Not Found" body.
func ProjectCtx(store storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := models.NameFromSlug(chi.URLParam(r, "slug"))

			project, err := store.Projects().GetByName(r.Context(), name)
			if err != nil {
				log.Printf("resolve project %q: %v", name, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if project == nil {
				http.Error(w, "Project Not Found", http.StatusNotFound)
				return
			}

			ctx := context.WithValue(r.Context(), projectKey, project)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetProject returns the project resolved by ProjectCtx, or nil.
func GetProject(ctx context.Context) *models.Project {
	if v := ctx.Value(projectKey); v != nil {
		if p, ok := v.(*models.Project); ok {
			return p
		}
	}
	return nil
}
