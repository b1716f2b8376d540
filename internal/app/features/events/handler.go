// Package events serves event endpoints: public listing and registration
// for users, full CRUD for admins.
package events

import (
	"net/http"

	"github.com/slotdesk/slotdesk/internal/app/realtime"
	"github.com/slotdesk/slotdesk/internal/app/registration"
	eventstore "github.com/slotdesk/slotdesk/internal/app/store/events"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the event endpoints.
type Handler struct {
	store *eventstore.Store
	users *userstore.Store
	svc   *registration.Service
	hub   *realtime.Hub
	log   *zap.Logger
}

// NewHandler constructs an events Handler.
func NewHandler(db *mongo.Database, svc *registration.Service, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		store: eventstore.New(db),
		users: userstore.New(db),
		svc:   svc,
		hub:   hub,
		log:   logger,
	}
}

type eventView struct {
	models.Event
	IsFull      bool `json:"isFull"`
	CanRegister bool `json:"canRegister"`
}

func toEventView(e models.Event) eventView {
	return eventView{Event: e, IsFull: e.IsFull(), CanRegister: e.CanRegister()}
}

func toEventViews(events []models.Event) []eventView {
	out := make([]eventView, len(events))
	for i, e := range events {
		out[i] = toEventView(e)
	}
	return out
}

type memberView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"studentId,omitempty"`
}

type adminEventView struct {
	eventView
	RegisteredUsers []memberView `json:"registeredUsers"`
}

func resolveMembers(users map[primitive.ObjectID]models.User, ids []primitive.ObjectID) []memberView {
	out := make([]memberView, 0, len(ids))
	for _, id := range ids {
		u, ok := users[id]
		if !ok {
			continue
		}
		out = append(out, memberView{
			ID:        u.ID.Hex(),
			Name:      u.Name,
			Email:     u.Email,
			StudentID: u.StudentID,
		})
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
