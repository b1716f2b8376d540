package surveys

import (
	"github.com/go-chi/chi/v5"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/domain/models"
)

// UserRoutes returns the signed-in survey endpoints, mounted under
// /api/user/survey-questions.
func UserRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleUser, models.RoleAdmin))
	r.Get("/", h.ListActive)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/respond", h.Respond)
	return r
}

// AdminRoutes returns the admin survey endpoints, mounted under
// /api/admin/survey-questions.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Post("/", h.AdminCreate)
	r.Get("/", h.AdminList)
	r.Get("/{id}", h.AdminGet)
	r.Put("/{id}", h.AdminUpdate)
	r.Delete("/{id}", h.AdminDelete)
	return r
}
