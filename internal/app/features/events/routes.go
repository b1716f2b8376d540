package events

import (
	"github.com/go-chi/chi/v5"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/domain/models"
)

// UserRoutes returns the signed-in event endpoints, mounted under
// /api/user/events.
func UserRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleUser, models.RoleAdmin))
	r.Get("/", h.ListActive)
	r.Post("/{id}/register", h.Register)
	return r
}

// AdminRoutes returns the admin event endpoints, mounted under
// /api/admin/events.
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
