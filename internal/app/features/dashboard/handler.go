// Package dashboard serves the admin overview: per-kind totals, active
// counts, and summed fill counters.
package dashboard

import (
	"context"
	"net/http"

	eventstore "github.com/slotdesk/slotdesk/internal/app/store/events"
	slotprefstore "github.com/slotdesk/slotdesk/internal/app/store/slotprefs"
	slotstore "github.com/slotdesk/slotdesk/internal/app/store/slots"
	surveystore "github.com/slotdesk/slotdesk/internal/app/store/surveys"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/app/system/timeouts"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the stores the stats endpoint aggregates over.
type Handler struct {
	slots   *slotstore.Store
	events  *eventstore.Store
	prefs   *slotprefstore.Store
	surveys *surveystore.Store
	users   *userstore.Store
	log     *zap.Logger
}

// NewHandler constructs a dashboard Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		slots:   slotstore.New(db),
		events:  eventstore.New(db),
		prefs:   slotprefstore.New(db),
		surveys: surveystore.New(db),
		users:   userstore.New(db),
		log:     logger,
	}
}

// kindStats is the per-resource-kind block in the stats response.
type kindStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Filled int64 `json:"filled"`
}

type statsResponse struct {
	TestSlots       kindStats `json:"testSlots"`
	Events          kindStats `json:"events"`
	SlotPreferences kindStats `json:"slotPreferences"`
	SurveyQuestions kindStats `json:"surveyQuestions"`
	TotalUsers      int64     `json:"totalUsers"`
	TotalAdmins     int64     `json:"totalAdmins"`
}

// Stats handles GET /api/admin/dashboard/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var resp statsResponse
	var err error

	if resp.TestSlots, err = collectStats(ctx, h.slots.Count, h.slots.SumRegistered); err != nil {
		h.failStats(w, "test slot stats", err)
		return
	}
	if resp.Events, err = collectStats(ctx, h.events.Count, h.events.SumRegistered); err != nil {
		h.failStats(w, "event stats", err)
		return
	}
	if resp.SlotPreferences, err = collectStats(ctx, h.prefs.Count, h.prefs.SumSelections); err != nil {
		h.failStats(w, "slot preference stats", err)
		return
	}
	if resp.SurveyQuestions, err = collectStats(ctx, h.surveys.Count, h.surveys.SumResponses); err != nil {
		h.failStats(w, "survey stats", err)
		return
	}
	if resp.TotalUsers, err = h.users.CountByRole(ctx, models.RoleUser); err != nil {
		h.failStats(w, "user count", err)
		return
	}
	if resp.TotalAdmins, err = h.users.CountByRole(ctx, models.RoleAdmin); err != nil {
		h.failStats(w, "admin count", err)
		return
	}

	httpjson.Write(w, http.StatusOK, resp)
}

func (h *Handler) failStats(w http.ResponseWriter, what string, err error) {
	h.log.Error("dashboard aggregation failed", zap.String("stat", what), zap.Error(err))
	httpjson.Error(w, http.StatusInternalServerError, "could not load dashboard stats")
}

// collectStats runs the shared total/active/filled queries for one kind.
func collectStats(ctx context.Context, count func(context.Context, bson.M) (int64, error), sum func(context.Context) (int64, error)) (kindStats, error) {
	var st kindStats
	var err error
	if st.Total, err = count(ctx, bson.M{}); err != nil {
		return kindStats{}, err
	}
	if st.Active, err = count(ctx, bson.M{"is_active": true}); err != nil {
		return kindStats{}, err
	}
	if st.Filled, err = sum(ctx); err != nil {
		return kindStats{}, err
	}
	return st, nil
}
