package registrations

import (
	"github.com/go-chi/chi/v5"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/domain/models"
)

// Routes returns the signed-in history endpoints. Mounted under /api/user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleUser, models.RoleAdmin))
	r.Get("/my-registrations", h.MyRegistrations)
	r.Get("/my-responses", h.MyResponses)
	return r
}
