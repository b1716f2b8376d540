// Package registrations serves a user's own registration and response
// history: the test slots they hold seats in, and their response ledger
// resolved against the live prompts.
package registrations

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	slotprefstore "github.com/slotdesk/slotdesk/internal/app/store/slotprefs"
	slotstore "github.com/slotdesk/slotdesk/internal/app/store/slots"
	surveystore "github.com/slotdesk/slotdesk/internal/app/store/surveys"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/app/system/timeouts"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the my-registrations and
// my-responses endpoints.
type Handler struct {
	users   *userstore.Store
	slots   *slotstore.Store
	prefs   *slotprefstore.Store
	surveys *surveystore.Store
	log     *zap.Logger
}

// NewHandler constructs a registrations Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		users:   userstore.New(db),
		slots:   slotstore.New(db),
		prefs:   slotprefstore.New(db),
		surveys: surveystore.New(db),
		log:     logger,
	}
}

// registrationView is one resolved test slot registration.
type registrationView struct {
	SlotID          string    `json:"slotId"`
	TestDate        time.Time `json:"testDate"`
	Description     string    `json:"description,omitempty"`
	RegisteredCount int       `json:"registeredCount"`
	IsActive        bool      `json:"isActive"`
}

// responseLedgerView is one ledger entry resolved against its source
// collection. When the target has been deleted, Prompt is null and
// Available is false; the recorded answer is still returned.
type responseLedgerView struct {
	TargetID    string    `json:"targetId"`
	TargetKind  string    `json:"targetKind"`
	Prompt      *string   `json:"prompt"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submittedAt"`
	Available   bool      `json:"available"`
}

func (h *Handler) currentUser(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.User, bool) {
	su, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session")
		return models.User{}, false
	}

	u, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusUnauthorized, "account no longer exists")
		return models.User{}, false
	}
	if err != nil {
		h.log.Error("loading session user failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load your account")
		return models.User{}, false
	}
	return u, true
}

// MyRegistrations handles GET /api/user/my-registrations. Slots deleted by
// an admin since the user registered are dropped from the result.
func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, ok := h.currentUser(ctx, w, r)
	if !ok {
		return
	}

	slots, err := h.slots.GetByIDs(ctx, u.RegisteredSlotIDs)
	if err != nil {
		h.log.Error("resolving registered slots failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load your registrations")
		return
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].TestDate.Before(slots[j].TestDate) })

	out := make([]registrationView, len(slots))
	for i, s := range slots {
		out[i] = registrationView{
			SlotID:          s.ID.Hex(),
			TestDate:        s.TestDate,
			Description:     s.Description,
			RegisteredCount: s.RegisteredCount,
			IsActive:        s.IsActive,
		}
	}
	httpjson.Write(w, http.StatusOK, out)
}

// MyResponses handles GET /api/user/my-responses: the user's ledger,
// newest first, each entry resolved for the current prompt text.
func (h *Handler) MyResponses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, ok := h.currentUser(ctx, w, r)
	if !ok {
		return
	}

	prompts, err := h.resolvePrompts(ctx, u.Responses)
	if err != nil {
		h.log.Error("resolving response targets failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load your responses")
		return
	}

	entries := make([]models.ResponseEntry, len(u.Responses))
	copy(entries, u.Responses)
	sort.Slice(entries, func(i, j int) bool { return entries[i].SubmittedAt.After(entries[j].SubmittedAt) })

	out := make([]responseLedgerView, len(entries))
	for i, e := range entries {
		view := responseLedgerView{
			TargetID:    e.TargetID.Hex(),
			TargetKind:  e.TargetKind,
			Answer:      e.Answer,
			SubmittedAt: e.SubmittedAt,
		}
		if prompt, ok := prompts[e.TargetID]; ok {
			view.Prompt = &prompt
			view.Available = true
		}
		out[i] = view
	}
	httpjson.Write(w, http.StatusOK, out)
}

// resolvePrompts looks up the current prompt text for every ledger target
// still present in its source collection.
func (h *Handler) resolvePrompts(ctx context.Context, entries []models.ResponseEntry) (map[primitive.ObjectID]string, error) {
	var surveyIDs, prefIDs []primitive.ObjectID
	for _, e := range entries {
		switch e.TargetKind {
		case models.TargetSurveyQuestion:
			surveyIDs = append(surveyIDs, e.TargetID)
		case models.TargetSlotPreference:
			prefIDs = append(prefIDs, e.TargetID)
		}
	}

	prompts := make(map[primitive.ObjectID]string, len(entries))

	questions, err := h.surveys.GetByIDs(ctx, surveyIDs)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		prompts[q.ID] = q.Question
	}

	prefs, err := h.prefs.GetByIDs(ctx, prefIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range prefs {
		prompts[p.ID] = p.Question
	}

	return prompts, nil
}
