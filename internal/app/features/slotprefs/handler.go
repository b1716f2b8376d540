// Package slotprefs serves slot preference endpoints: a prompt with
// multiple capacity-bounded options users pick exactly one of.
package slotprefs

import (
	"net/http"
	"time"

	"github.com/slotdesk/slotdesk/internal/app/realtime"
	"github.com/slotdesk/slotdesk/internal/app/registration"
	slotprefstore "github.com/slotdesk/slotdesk/internal/app/store/slotprefs"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the slot preference endpoints.
type Handler struct {
	store *slotprefstore.Store
	users *userstore.Store
	svc   *registration.Service
	hub   *realtime.Hub
	log   *zap.Logger
}

// NewHandler constructs a slotprefs Handler.
func NewHandler(db *mongo.Database, svc *registration.Service, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		store: slotprefstore.New(db),
		users: userstore.New(db),
		svc:   svc,
		hub:   hub,
		log:   logger,
	}
}

type optionView struct {
	Label        string `json:"label"`
	MaxCount     int    `json:"maxCount"`
	CurrentCount int    `json:"currentCount"`
	IsFull       bool   `json:"isFull"`
}

// prefView is the user-facing projection with per-option fullness and no
// member sets.
type prefView struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Slots     []optionView `json:"slots"`
	IsActive  bool         `json:"isActive"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func toPrefView(p models.SlotPreference) prefView {
	slots := make([]optionView, len(p.Slots))
	for i := range p.Slots {
		o := &p.Slots[i]
		slots[i] = optionView{
			Label:        o.Label,
			MaxCount:     o.MaxCount,
			CurrentCount: o.CurrentCount,
			IsFull:       o.IsFull(),
		}
	}
	return prefView{
		ID:        p.ID.Hex(),
		Question:  p.Question,
		Slots:     slots,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPrefViews(prefs []models.SlotPreference) []prefView {
	out := make([]prefView, len(prefs))
	for i, p := range prefs {
		out[i] = toPrefView(p)
	}
	return out
}

type memberView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"studentId,omitempty"`
}

type adminOptionView struct {
	optionView
	RegisteredUsers []memberView `json:"registeredUsers"`
}

type adminPrefView struct {
	prefView
	Slots []adminOptionView `json:"slots"`
}

func (h *Handler) toAdminPrefView(p models.SlotPreference, users map[primitive.ObjectID]models.User) adminPrefView {
	base := toPrefView(p)
	slots := make([]adminOptionView, len(p.Slots))
	for i := range p.Slots {
		members := make([]memberView, 0, len(p.Slots[i].RegisteredUserIDs))
		for _, id := range p.Slots[i].RegisteredUserIDs {
			u, ok := users[id]
			if !ok {
				continue
			}
			members = append(members, memberView{
				ID:        u.ID.Hex(),
				Name:      u.Name,
				Email:     u.Email,
				StudentID: u.StudentID,
			})
		}
		slots[i] = adminOptionView{optionView: base.Slots[i], RegisteredUsers: members}
	}
	return adminPrefView{prefView: base, Slots: slots}
}

func pathID(w http.ResponseWriter, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
