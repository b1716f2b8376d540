// Package slots serves test slot endpoints: public listing and
// registration for users, full CRUD for admins.
package slots

import (
	"net/http"

	"github.com/slotdesk/slotdesk/internal/app/realtime"
	"github.com/slotdesk/slotdesk/internal/app/registration"
	slotstore "github.com/slotdesk/slotdesk/internal/app/store/slots"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the test slot endpoints.
type Handler struct {
	store *slotstore.Store
	users *userstore.Store
	svc   *registration.Service
	hub   *realtime.Hub
	log   *zap.Logger
}

// NewHandler constructs a slots Handler.
func NewHandler(db *mongo.Database, svc *registration.Service, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		store: slotstore.New(db),
		users: userstore.New(db),
		svc:   svc,
		hub:   hub,
		log:   logger,
	}
}

// slotView is the user-facing projection: the member set stays server-side
// and fullness is derived for the client.
type slotView struct {
	models.TestSlot
	IsFull      bool `json:"isFull"`
	CanRegister bool `json:"canRegister"`
}

func toSlotView(s models.TestSlot) slotView {
	return slotView{TestSlot: s, IsFull: s.IsFull(), CanRegister: s.CanRegister()}
}

func toSlotViews(slots []models.TestSlot) []slotView {
	out := make([]slotView, len(slots))
	for i, s := range slots {
		out[i] = toSlotView(s)
	}
	return out
}

// memberView is the admin-facing projection of a registered user.
type memberView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"studentId,omitempty"`
}

// adminSlotView adds the resolved member list to the slot.
type adminSlotView struct {
	slotView
	RegisteredUsers []memberView `json:"registeredUsers"`
}

// resolveMembers maps member IDs to their user identities. Users deleted
// since registering are silently skipped.
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

// pathID parses the {id} URL parameter, writing a 400 response on failure.
func pathID(w http.ResponseWriter, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeRegistrationError maps a registration service error to its HTTP
// response.
func writeRegistrationError(w http.ResponseWriter, log *zap.Logger, err error, kind string) {
	status, msg := registration.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("registration failed", zap.String("kind", kind), zap.Error(err))
	}
	httpjson.Error(w, status, msg)
}
