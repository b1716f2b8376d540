package slots

import (
	"context"
	"errors"
	"net/http"
	"time"

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

type createSlotRequest struct {
	TestDate          time.Time `json:"testDate"`
	RegistrationLimit int       `json:"registrationLimit"`
	Description       string    `json:"description,omitempty"`
}

type updateSlotRequest struct {
	TestDate          *time.Time `json:"testDate,omitempty"`
	RegistrationLimit *int       `json:"registrationLimit,omitempty"`
	IsActive          *bool      `json:"isActive,omitempty"`
	Description       *string    `json:"description,omitempty"`
}

// AdminCreate handles POST /api/admin/test-slots.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TestDate.IsZero() {
		httpjson.Error(w, http.StatusBadRequest, "testDate is required")
		return
	}
	if req.RegistrationLimit < 1 {
		httpjson.Error(w, http.StatusBadRequest, "registrationLimit must be at least 1")
		return
	}

	user, _ := auth.CurrentUser(r)
	createdBy, _ := primitive.ObjectIDFromHex(user.ID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	slot, err := h.store.Create(ctx, models.TestSlot{
		TestDate:          req.TestDate,
		Description:       htmlsanitize.Sanitize(req.Description),
		RegistrationLimit: req.RegistrationLimit,
		CreatedBy:         createdBy,
	})
	if err != nil {
		h.log.Error("creating test slot failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create test slot")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.TestSlotCreated, Payload: toSlotView(slot)})
	httpjson.Write(w, http.StatusCreated, toSlotView(slot))
}

// AdminList handles GET /api/admin/test-slots. Every slot is returned,
// newest first, with its member set resolved to user identities.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	slots, err := h.store.ListAll(ctx)
	if err != nil {
		h.log.Error("listing test slots failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load test slots")
		return
	}

	var ids []primitive.ObjectID
	for _, s := range slots {
		ids = append(ids, s.RegisteredUserIDs...)
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		h.log.Error("resolving registered users failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load test slots")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]adminSlotView, len(slots))
	for i, s := range slots {
		out[i] = adminSlotView{
			slotView:        toSlotView(s),
			RegisteredUsers: resolveMembers(byID, s.RegisteredUserIDs),
		}
	}
	httpjson.Write(w, http.StatusOK, out)
}

// AdminGet handles GET /api/admin/test-slots/{id}.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	slot, err := h.store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "test slot not found")
		return
	}
	if err != nil {
		h.log.Error("loading test slot failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load test slot")
		return
	}

	users, err := h.users.GetByIDs(ctx, slot.RegisteredUserIDs)
	if err != nil {
		h.log.Error("resolving registered users failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load test slot")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	httpjson.Write(w, http.StatusOK, adminSlotView{
		slotView:        toSlotView(slot),
		RegisteredUsers: resolveMembers(byID, slot.RegisteredUserIDs),
	})
}

// AdminUpdate handles PUT /api/admin/test-slots/{id}. Only the fields
// present in the body change; the member set and counter are never
// editable through this path.
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req updateSlotRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RegistrationLimit != nil && *req.RegistrationLimit < 1 {
		httpjson.Error(w, http.StatusBadRequest, "registrationLimit must be at least 1")
		return
	}
	if req.Description != nil {
		clean := htmlsanitize.Sanitize(*req.Description)
		req.Description = &clean
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	slot, err := h.store.Update(ctx, id, req.TestDate, req.RegistrationLimit, req.IsActive, req.Description)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "test slot not found")
		return
	}
	if err != nil {
		h.log.Error("updating test slot failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update test slot")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.TestSlotUpdated, Payload: toSlotView(slot)})
	httpjson.Write(w, http.StatusOK, toSlotView(slot))
}

// AdminDelete handles DELETE /api/admin/test-slots/{id}. Registrations on
// user records keep pointing at the deleted slot; the my-registrations
// read resolves them away.
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.store.Delete(ctx, id)
	if err != nil {
		h.log.Error("deleting test slot failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete test slot")
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "test slot not found")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.TestSlotDeleted, Payload: realtime.DeletedPayload{ID: id.Hex()}})
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "test slot deleted"})
}
