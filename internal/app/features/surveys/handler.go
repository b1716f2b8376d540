// Package surveys serves survey question endpoints: listing and answering
// for users, full CRUD with response detail for admins.
package surveys

import (
	"net/http"
	"time"

	"github.com/slotdesk/slotdesk/internal/app/realtime"
	"github.com/slotdesk/slotdesk/internal/app/registration"
	surveystore "github.com/slotdesk/slotdesk/internal/app/store/surveys"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the survey question endpoints.
type Handler struct {
	store *surveystore.Store
	users *userstore.Store
	svc   *registration.Service
	hub   *realtime.Hub
	log   *zap.Logger
}

// NewHandler constructs a surveys Handler.
func NewHandler(db *mongo.Database, svc *registration.Service, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		store: surveystore.New(db),
		users: userstore.New(db),
		svc:   svc,
		hub:   hub,
		log:   logger,
	}
}

// questionView is the user-facing projection; individual responses stay
// server-side.
type questionView struct {
	models.SurveyQuestion
	IsFull     bool `json:"isFull"`
	CanRespond bool `json:"canRespond"`
}

func toQuestionView(q models.SurveyQuestion) questionView {
	return questionView{SurveyQuestion: q, IsFull: q.IsFull(), CanRespond: q.CanRespond()}
}

func toQuestionViews(qs []models.SurveyQuestion) []questionView {
	out := make([]questionView, len(qs))
	for i, q := range qs {
		out[i] = toQuestionView(q)
	}
	return out
}

// responseView is a single answer with its author resolved.
type responseView struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type adminQuestionView struct {
	questionView
	Responses []responseView `json:"responses"`
}

func resolveResponses(users map[primitive.ObjectID]models.User, responses []models.SurveyResponse) []responseView {
	out := make([]responseView, 0, len(responses))
	for _, resp := range responses {
		view := responseView{
			UserID:      resp.UserID.Hex(),
			Answer:      resp.Answer,
			SubmittedAt: resp.SubmittedAt,
		}
		if u, ok := users[resp.UserID]; ok {
			view.Name = u.Name
			view.Email = u.Email
		}
		out = append(out, view)
	}
	return out
}

func pathID(w http.ResponseWriter, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
