package slotprefs_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/slotdesk/slotdesk/internal/app/features/slotprefs"
	"github.com/slotdesk/slotdesk/internal/app/realtime"
	"github.com/slotdesk/slotdesk/internal/app/registration"
	eventstore "github.com/slotdesk/slotdesk/internal/app/store/events"
	slotprefstore "github.com/slotdesk/slotdesk/internal/app/store/slotprefs"
	slotstore "github.com/slotdesk/slotdesk/internal/app/store/slots"
	surveystore "github.com/slotdesk/slotdesk/internal/app/store/surveys"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*slotprefs.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	hub := realtime.NewHub(logger)
	svc := registration.NewService(
		slotstore.New(db), eventstore.New(db), slotprefstore.New(db),
		surveystore.New(db), userstore.New(db), hub, logger)
	return slotprefs.NewHandler(db, svc, hub, logger), testutil.NewFixtures(t, db)
}

func TestRegister(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := fixtures.CreateStudent(ctx, "Picker", "picker@example.com", "S400")
	pref := fixtures.CreateSlotPreference(ctx, "Which session?",
		testutil.Option("Morning", 5), testutil.Option("Afternoon", 5))

	req := testutil.NewJSONRequest(t, "POST",
		"/api/user/slot-preferences/"+pref.ID.Hex()+"/register",
		map[string]any{"slotIndex": 1})
	req = testutil.WithUser(req, testutil.UserFor(student))
	req = testutil.WithChiURLParam(req, "id", pref.ID.Hex())
	rec := testutil.NewRecorder()
	handler.Register(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)

	var view struct {
		Slots []struct {
			Label        string `json:"label"`
			CurrentCount int    `json:"currentCount"`
			IsFull       bool   `json:"isFull"`
		} `json:"slots"`
	}
	rec.DecodeJSON(t, &view)
	if len(view.Slots) != 2 {
		t.Fatalf("expected 2 options, got %d", len(view.Slots))
	}
	if view.Slots[1].CurrentCount != 1 {
		t.Errorf("chosen option count: got %d, want 1", view.Slots[1].CurrentCount)
	}
	if view.Slots[0].CurrentCount != 0 {
		t.Errorf("untouched option count: got %d, want 0", view.Slots[0].CurrentCount)
	}
}

func TestRegister_FullOption(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pref := fixtures.CreateSlotPreference(ctx, "Which session?",
		testutil.Option("Tiny", 1), testutil.Option("Roomy", 5))
	if _, err := slotprefstore.New(fixtures.DB()).Register(ctx, pref.ID, primitive.NewObjectID(), 0); err != nil {
		t.Fatalf("filling fixture option: %v", err)
	}
	student := fixtures.CreateStudent(ctx, "Late Picker", "latepick@example.com", "S401")

	req := testutil.NewJSONRequest(t, "POST",
		"/api/user/slot-preferences/"+pref.ID.Hex()+"/register",
		map[string]any{"slotIndex": 0})
	req = testutil.WithUser(req, testutil.UserFor(student))
	req = testutil.WithChiURLParam(req, "id", pref.ID.Hex())
	rec := testutil.NewRecorder()
	handler.Register(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "registration limit reached")
}

func TestRegister_SecondChoiceRejected(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := fixtures.CreateStudent(ctx, "Switcher", "switch@example.com", "S402")
	pref := fixtures.CreateSlotPreference(ctx, "Which session?",
		testutil.Option("Morning", 5), testutil.Option("Afternoon", 5))
	if _, err := slotprefstore.New(fixtures.DB()).Register(ctx, pref.ID, student.ID, 0); err != nil {
		t.Fatalf("registering fixture choice: %v", err)
	}

	req := testutil.NewJSONRequest(t, "POST",
		"/api/user/slot-preferences/"+pref.ID.Hex()+"/register",
		map[string]any{"slotIndex": 1})
	req = testutil.WithUser(req, testutil.UserFor(student))
	req = testutil.WithChiURLParam(req, "id", pref.ID.Hex())
	rec := testutil.NewRecorder()
	handler.Register(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "you are already registered")
}

func TestRegister_BadIndex(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := fixtures.CreateStudent(ctx, "Off By Many", "offby@example.com", "S403")
	pref := fixtures.CreateSlotPreference(ctx, "Which session?",
		testutil.Option("Morning", 5))

	req := testutil.NewJSONRequest(t, "POST",
		"/api/user/slot-preferences/"+pref.ID.Hex()+"/register",
		map[string]any{"slotIndex": 7})
	req = testutil.WithUser(req, testutil.UserFor(student))
	req = testutil.WithChiURLParam(req, "id", pref.ID.Hex())
	rec := testutil.NewRecorder()
	handler.Register(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "invalid slot selected")
}

func TestAdminCreate(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/admin/slot-preferences", map[string]any{
		"question": "Preferred <script>alert(1)</script> time?",
		"slots": []map[string]any{
			{"label": "Morning", "maxCount": 10},
			{"label": "Afternoon", "maxCount": 10},
		},
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	handler.AdminCreate(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusCreated)

	var view struct {
		ID       string `json:"id"`
		Question string `json:"question"`
		Slots    []struct {
			Label    string `json:"label"`
			MaxCount int    `json:"maxCount"`
		} `json:"slots"`
	}
	rec.DecodeJSON(t, &view)
	if view.ID == "" {
		t.Error("expected an id in the response")
	}
	// Markup is stripped before storage.
	if strings.Contains(view.Question, "<script>") {
		t.Errorf("question not sanitized: %q", view.Question)
	}
	if len(view.Slots) != 2 || view.Slots[0].Label != "Morning" || view.Slots[1].MaxCount != 10 {
		t.Errorf("options not stored as submitted: %+v", view.Slots)
	}
}

func TestAdminCreate_RejectsEmptyOptions(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/admin/slot-preferences", map[string]any{
		"question": "Preferred time?",
		"slots":    []map[string]any{},
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	handler.AdminCreate(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "slot option")
}
