package slotprefs

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/slotdesk/slotdesk/internal/app/realtime"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/app/system/htmlsanitize"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/app/system/timeouts"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type createOptionRequest struct {
	Label    string `json:"label"`
	MaxCount int    `json:"maxCount"`
}

type createPrefRequest struct {
	Question string                `json:"question"`
	Slots    []createOptionRequest `json:"slots"`
}

// Option capacities are fixed at creation; edits after users have
// registered would let the current count exceed a lowered limit.
type updatePrefRequest struct {
	Question *string `json:"question,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// AdminCreate handles POST /api/admin/slot-preferences.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req createPrefRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		httpjson.Error(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Slots) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "at least one slot option is required")
		return
	}
	slots := make([]models.SlotOption, len(req.Slots))
	for i, opt := range req.Slots {
		if opt.Label == "" {
			httpjson.Error(w, http.StatusBadRequest, "every slot option needs a label")
			return
		}
		if opt.MaxCount < 1 {
			httpjson.Error(w, http.StatusBadRequest, "every slot option needs maxCount of at least 1")
			return
		}
		slots[i] = models.SlotOption{
			Label:    htmlsanitize.PlainText(opt.Label),
			MaxCount: opt.MaxCount,
		}
	}

	user, _ := auth.CurrentUser(r)
	createdBy, _ := primitive.ObjectIDFromHex(user.ID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pref, err := h.store.Create(ctx, models.SlotPreference{
		Question:  htmlsanitize.PlainText(req.Question),
		Slots:     slots,
		CreatedBy: createdBy,
	})
	if err != nil {
		h.log.Error("creating slot preference failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create slot preference")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.SlotPreferenceCreated, Payload: toPrefView(pref)})
	httpjson.Write(w, http.StatusCreated, toPrefView(pref))
}

// AdminList handles GET /api/admin/slot-preferences, newest first with
// per-option resolved member lists.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	prefs, err := h.store.ListAll(ctx)
	if err != nil {
		h.log.Error("listing slot preferences failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load slot preferences")
		return
	}

	var ids []primitive.ObjectID
	for _, p := range prefs {
		for i := range p.Slots {
			ids = append(ids, p.Slots[i].RegisteredUserIDs...)
		}
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		h.log.Error("resolving registered users failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load slot preferences")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]adminPrefView, len(prefs))
	for i, p := range prefs {
		out[i] = h.toAdminPrefView(p, byID)
	}
	httpjson.Write(w, http.StatusOK, out)
}

// AdminGet handles GET /api/admin/slot-preferences/{id}.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pref, err := h.store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "slot preference not found")
		return
	}
	if err != nil {
		h.log.Error("loading slot preference failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load slot preference")
		return
	}

	var ids []primitive.ObjectID
	for i := range pref.Slots {
		ids = append(ids, pref.Slots[i].RegisteredUserIDs...)
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		h.log.Error("resolving registered users failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load slot preference")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	httpjson.Write(w, http.StatusOK, h.toAdminPrefView(pref, byID))
}

// AdminUpdate handles PUT /api/admin/slot-preferences/{id}. Only the
// question text and active flag are editable.
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req updatePrefRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question != nil {
		clean := htmlsanitize.PlainText(*req.Question)
		if clean == "" {
			httpjson.Error(w, http.StatusBadRequest, "question cannot be empty")
			return
		}
		req.Question = &clean
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pref, err := h.store.Update(ctx, id, req.Question, req.IsActive)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "slot preference not found")
		return
	}
	if err != nil {
		h.log.Error("updating slot preference failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update slot preference")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.SlotPreferenceUpdated, Payload: toPrefView(pref)})
	httpjson.Write(w, http.StatusOK, toPrefView(pref))
}

// AdminDelete handles DELETE /api/admin/slot-preferences/{id}.
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.store.Delete(ctx, id)
	if err != nil {
		h.log.Error("deleting slot preference failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete slot preference")
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "slot preference not found")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.SlotPreferenceDeleted, Payload: realtime.DeletedPayload{ID: id.Hex()}})
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "slot preference deleted"})
}
