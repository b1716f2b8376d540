package slotprefs

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

type registerRequest struct {
	SlotIndex int `json:"slotIndex"`
}

// ListActive handles GET /api/user/slot-preferences, newest first.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prefs, err := h.store.ListActive(ctx)
	if err != nil {
		h.log.Error("listing active slot preferences failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load slot preferences")
		return
	}
	httpjson.Write(w, http.StatusOK, toPrefViews(prefs))
}

// Register handles POST /api/user/slot-preferences/{id}/register with a
// {slotIndex} body naming the chosen option.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	prefID, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
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

	pref, err := h.svc.RegisterSlotPreference(ctx, prefID, userID, req.SlotIndex)
	if err != nil {
		status, msg := registration.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			h.log.Error("slot preference registration failed", zap.Error(err))
		}
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, toPrefView(pref))
}
