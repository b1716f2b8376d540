package surveys

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/slotdesk/slotdesk/internal/app/registration"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type respondRequest struct {
	Answer string `json:"answer"`
}

// ListActive handles GET /api/user/survey-questions, newest first.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	qs, err := h.store.ListActive(ctx)
	if err != nil {
		h.log.Error("listing active survey questions failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load survey questions")
		return
	}
	httpjson.Write(w, http.StatusOK, toQuestionViews(qs))
}

// Get handles GET /api/user/survey-questions/{id}. Users can fetch a
// single question, active or not, to see its state after answering.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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
	httpjson.Write(w, http.StatusOK, toQuestionView(q))
}

// Respond handles POST /api/user/survey-questions/{id}/respond with an
// {answer} body. The response echoes the canonical stored answer, which
// may differ from the submitted one for yes/no and consent questions.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req respondRequest
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

	q, answer, err := h.svc.RespondSurveyQuestion(ctx, questionID, userID, req.Answer)
	if err != nil {
		status, msg := registration.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			h.log.Error("survey response failed", zap.Error(err))
		}
		httpjson.Error(w, status, msg)
		return
	}

	httpjson.Write(w, http.StatusOK, struct {
		questionView
		Answer string `json:"answer"`
	}{toQuestionView(q), answer})
}
