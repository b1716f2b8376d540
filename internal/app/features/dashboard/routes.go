package dashboard

import (
	"github.com/go-chi/chi/v5"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/domain/models"
)

// Routes returns the admin dashboard endpoints, mounted under
// /api/admin/dashboard.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/stats", h.Stats)
	return r
}
