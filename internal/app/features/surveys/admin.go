package surveys

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

type createQuestionRequest struct {
	Question     string `json:"question"`
	QuestionType string `json:"questionType"`
	MaxResponses int    `json:"maxResponses"`
}

type updateQuestionRequest struct {
	Question     *string `json:"question,omitempty"`
	QuestionType *string `json:"questionType,omitempty"`
	MaxResponses *int    `json:"maxResponses,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// AdminCreate handles POST /api/admin/survey-questions.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		httpjson.Error(w, http.StatusBadRequest, "question is required")
		return
	}
	if !models.IsValidQuestionType(req.QuestionType) {
		httpjson.Error(w, http.StatusBadRequest, "invalid questionType")
		return
	}
	if req.MaxResponses < 1 {
		httpjson.Error(w, http.StatusBadRequest, "maxResponses must be at least 1")
		return
	}

	user, _ := auth.CurrentUser(r)
	createdBy, _ := primitive.ObjectIDFromHex(user.ID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	q, err := h.store.Create(ctx, models.SurveyQuestion{
		Question:     htmlsanitize.PlainText(req.Question),
		QuestionType: req.QuestionType,
		MaxResponses: req.MaxResponses,
		CreatedBy:    createdBy,
	})
	if err != nil {
		h.log.Error("creating survey question failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create survey question")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.SurveyQuestionCreated, Payload: toQuestionView(q)})
	httpjson.Write(w, http.StatusCreated, toQuestionView(q))
}

// AdminList handles GET /api/admin/survey-questions, newest first with
// responses resolved to user identities.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	qs, err := h.store.ListAll(ctx)
	if err != nil {
		h.log.Error("listing survey questions failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load survey questions")
		return
	}

	var ids []primitive.ObjectID
	for _, q := range qs {
		for _, resp := range q.Responses {
			ids = append(ids, resp.UserID)
		}
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		h.log.Error("resolving respondents failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load survey questions")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]adminQuestionView, len(qs))
	for i, q := range qs {
		out[i] = adminQuestionView{
			questionView: toQuestionView(q),
			Responses:    resolveResponses(byID, q.Responses),
		}
	}
	httpjson.Write(w, http.StatusOK, out)
}

// AdminGet handles GET /api/admin/survey-questions/{id}.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "survey question not found")
		return
	}
	if err != nil {
		h.log.Error("loading survey question failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load survey question")
		return
	}

	var ids []primitive.ObjectID
	for _, resp := range q.Responses {
		ids = append(ids, resp.UserID)
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		h.log.Error("resolving respondents failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load survey question")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	httpjson.Write(w, http.StatusOK, adminQuestionView{
		questionView: toQuestionView(q),
		Responses:    resolveResponses(byID, q.Responses),
	})
}

// AdminUpdate handles PUT /api/admin/survey-questions/{id}. Changing the
// question type does not rewrite answers already collected under the old
// type.
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req updateQuestionRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionType != nil && !models.IsValidQuestionType(*req.QuestionType) {
		httpjson.Error(w, http.StatusBadRequest, "invalid questionType")
		return
	}
	if req.MaxResponses != nil && *req.MaxResponses < 1 {
		httpjson.Error(w, http.StatusBadRequest, "maxResponses must be at least 1")
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

	q, err := h.store.Update(ctx, id, req.Question, req.MaxResponses, req.QuestionType, req.IsActive)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "survey question not found")
		return
	}
	if err != nil {
		h.log.Error("updating survey question failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update survey question")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.SurveyQuestionUpdated, Payload: toQuestionView(q)})
	httpjson.Write(w, http.StatusOK, toQuestionView(q))
}

// AdminDelete handles DELETE /api/admin/survey-questions/{id}. Ledger
// entries on user records keep the answer text; the my-responses read
// marks the target unavailable.
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.store.Delete(ctx, id)
	if err != nil {
		h.log.Error("deleting survey question failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete survey question")
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "survey question not found")
		return
	}

	h.hub.Publish(realtime.Event{Name: realtime.SurveyQuestionDeleted, Payload: realtime.DeletedPayload{ID: id.Hex()}})
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "survey question deleted"})
}
