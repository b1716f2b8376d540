package events

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/slotdesk/slotdesk/internal/app/registration"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListActive handles GET /api/user/events, soonest event first.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.store.ListActive(ctx)
	if err != nil {
		h.log.Error("listing active events failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load events")
		return
	}
	httpjson.Write(w, http.StatusOK, toEventViews(events))
}

// Register handles POST /api/user/events/{id}/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.svc.RegisterEvent(ctx, eventID, userID)
	if err != nil {
		status, msg := registration.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			h.log.Error("event registration failed", zap.Error(err))
		}
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, toEventView(ev))
}
