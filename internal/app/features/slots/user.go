package slots

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListActive handles GET /api/user/test-slots. Slots come back in test
// date order so the soonest sitting is first.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	slots, err := h.store.ListActive(ctx)
	if err != nil {
		h.log.Error("listing active test slots failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load test slots")
		return
	}
	httpjson.Write(w, http.StatusOK, toSlotViews(slots))
}

// Register handles POST /api/user/test-slots/{id}/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathID(w, chi.URLParam(r, "id"))
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

	slot, err := h.svc.RegisterTestSlot(ctx, slotID, userID)
	if err != nil {
		writeRegistrationError(w, h.log, err, "test_slot")
		return
	}
	httpjson.Write(w, http.StatusOK, toSlotView(slot))
}
