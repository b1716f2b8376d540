package events

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

type createEventRequest struct {
	Title             string    `json:"title"`
	EventDate         time.Time `json:"eventDate"`
	EventType         string    `json:"eventType,omitempty"`
	RegistrationLimit int       `json:"registrationLimit"`
	Description       string    `json:"description,omitempty"`
}

type updateEventRequest struct {
	Title             *string    `json:"title,omitempty"`
	EventDate         *time.Time `json:"eventDate,omitempty"`
	EventType         *string    `json:"eventType,omitempty"`
	RegistrationLimit *int       `json:"registrationLimit,omitempty"`
	Description       *string    `json:"description,omitempty"`
	IsActive          *bool      `json:"isActive,omitempty"`
}

// AdminCreate handles POST /api/admin/events.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		httpjson.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.EventDate.IsZero() {
		httpjson.Error(w, http.StatusBadRequest, "eventDate is required")
		return
	}
	if req.RegistrationLimit < 1 {
		httpjson.Error(w, http.StatusBadRequest, "registrationLimit must be at least 1")
		return
	}
	if req.EventType != "" && !models.IsValidEventType(req.EventType) {
		httpjson.Error(w, http.StatusBadRequest, "invalid eventType")
		return
	}

	user, _ := auth.CurrentUser(r)
	createdBy, _ := primitive.ObjectIDFromHex(user.ID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.store.Create(ctx, models.Event{
		Title:             htmlsanitize.PlainText(req.Title),
		EventDate:         req.EventDate,
		EventType:         req.EventType,
		RegistrationLimit: req.RegistrationLimit,
		Description:       htmlsanitize.Sanitize(req.Description),
		CreatedBy:         createdBy,
	})
	if err != nil {
		h.log.Error("creating event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create event")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.EventCreated, Payload: toEventView(ev)})
	httpjson.Write(w, http.StatusCreated, toEventView(ev))
}

// AdminList handles GET /api/admin/events, newest first with resolved
// member lists.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.store.ListAll(ctx)
	if err != nil {
		h.log.Error("listing events failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load events")
		return
	}

	var ids []primitive.ObjectID
	for _, e := range events {
		ids = append(ids, e.RegisteredUserIDs...)
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		h.log.Error("resolving registered users failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load events")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]adminEventView, len(events))
	for i, e := range events {
		out[i] = adminEventView{
			eventView:       toEventView(e),
			RegisteredUsers: resolveMembers(byID, e.RegisteredUserIDs),
		}
	}
	httpjson.Write(w, http.StatusOK, out)
}

// AdminGet handles GET /api/admin/events/{id}.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		h.log.Error("loading event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load event")
		return
	}

	users, err := h.users.GetByIDs(ctx, ev.RegisteredUserIDs)
	if err != nil {
		h.log.Error("resolving registered users failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load event")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	httpjson.Write(w, http.StatusOK, adminEventView{
		eventView:       toEventView(ev),
		RegisteredUsers: resolveMembers(byID, ev.RegisteredUserIDs),
	})
}

// AdminUpdate handles PUT /api/admin/events/{id}.
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req updateEventRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RegistrationLimit != nil && *req.RegistrationLimit < 1 {
		httpjson.Error(w, http.StatusBadRequest, "registrationLimit must be at least 1")
		return
	}
	if req.EventType != nil && !models.IsValidEventType(*req.EventType) {
		httpjson.Error(w, http.StatusBadRequest, "invalid eventType")
		return
	}
	if req.Title != nil {
		clean := htmlsanitize.PlainText(*req.Title)
		if clean == "" {
			httpjson.Error(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		req.Title = &clean
	}
	if req.Description != nil {
		clean := htmlsanitize.Sanitize(*req.Description)
		req.Description = &clean
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.store.Update(ctx, id, req.Title, req.EventDate, req.RegistrationLimit, req.EventType, req.Description, req.IsActive)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		h.log.Error("updating event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update event")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.EventUpdated, Payload: toEventView(ev)})
	httpjson.Write(w, http.StatusOK, toEventView(ev))
}

// AdminDelete handles DELETE /api/admin/events/{id}.
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.store.Delete(ctx, id)
	if err != nil {
		h.log.Error("deleting event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete event")
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "event not found")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.EventDeleted, Payload: realtime.DeletedPayload{ID: id.Hex()}})
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "event deleted"})
}
