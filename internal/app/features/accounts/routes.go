package accounts

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the /api/auth endpoints. The handlers
// check the session themselves where needed, so no middleware is applied
// here.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
	return r
}
