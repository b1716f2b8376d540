package registration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/slotdesk/slotdesk/internal/app/realtime"
	eventstore "github.com/slotdesk/slotdesk/internal/app/store/events"
	slotprefstore "github.com/slotdesk/slotdesk/internal/app/store/slotprefs"
	slotstore "github.com/slotdesk/slotdesk/internal/app/store/slots"
	surveystore "github.com/slotdesk/slotdesk/internal/app/store/surveys"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"github.com/slotdesk/slotdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *testutil.Fixtures, *realtime.Hub) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	hub := realtime.NewHub(zap.NewNop())
	svc := NewService(
		slotstore.New(db),
		eventstore.New(db),
		slotprefstore.New(db),
		surveystore.New(db),
		userstore.New(db),
		hub,
		zap.NewNop(),
	)
	return svc, testutil.NewFixtures(t, db), hub
}

func TestService_RegisterTestSlot(t *testing.T) {
	svc, fx, hub := newTestService(t)
	ctx := context.Background()

	slot := fx.CreateTestSlot(ctx, "Morning session", 2)
	alice := fx.CreateStudent(ctx, "Alice", "alice@test.com", "S001")
	bob := fx.CreateStudent(ctx, "Bob", "bob@test.com", "S002")
	carol := fx.CreateStudent(ctx, "Carol", "carol@test.com", "S003")

	events := hub.Subscribe("svc-test")
	defer hub.Unsubscribe("svc-test")

	got, err := svc.RegisterTestSlot(ctx, slot.ID, alice.ID)
	if err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if got.RegisteredCount != 1 || got.IsFull() {
		t.Errorf("after first registration: count=%d full=%v", got.RegisteredCount, got.IsFull())
	}

	got, err = svc.RegisterTestSlot(ctx, slot.ID, bob.ID)
	if err != nil {
		t.Fatalf("second registration failed: %v", err)
	}
	if got.RegisteredCount != 2 || !got.IsFull() {
		t.Errorf("after second registration: count=%d full=%v", got.RegisteredCount, got.IsFull())
	}

	if _, err := svc.RegisterTestSlot(ctx, slot.ID, carol.ID); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("registration beyond capacity: got %v, want ErrCapacityExceeded", err)
	}
	if _, err := svc.RegisterTestSlot(ctx, slot.ID, alice.ID); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate registration: got %v, want ErrAlreadyRegistered", err)
	}

	// Successful admissions each publish one update; rejections publish none.
	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			if ev.Name != realtime.RegistrationUpdate {
				t.Errorf("event %d: got %q, want %q", i, ev.Name, realtime.RegistrationUpdate)
			}
		default:
			t.Fatalf("expected %d published events, got %d", 2, i)
		}
	}
	select {
	case ev := <-events:
		t.Errorf("unexpected extra event %q after rejected attempts", ev.Name)
	default:
	}

	// The admission is mirrored onto the user record.
	u, err := userstore.New(fx.DB()).GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("loading user: %v", err)
	}
	found := false
	for _, id := range u.RegisteredSlotIDs {
		if id == slot.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("slot %s not mirrored onto user record", slot.ID.Hex())
	}
}

func TestService_RegisterTestSlot_Rejections(t *testing.T) {
	svc, fx, _ := newTestService(t)
	ctx := context.Background()

	user := fx.CreateStudent(ctx, "Alice", "alice@test.com", "S001")

	if _, err := svc.RegisterTestSlot(ctx, primitive.NewObjectID(), user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing slot: got %v, want ErrNotFound", err)
	}

	slot := fx.CreateTestSlot(ctx, "Closed session", 5)
	if _, err := fx.DB().Collection("test_slots").UpdateByID(ctx, slot.ID,
		map[string]any{"$set": map[string]any{"is_active": false}}); err != nil {
		t.Fatalf("deactivating slot: %v", err)
	}
	if _, err := svc.RegisterTestSlot(ctx, slot.ID, user.ID); !errors.Is(err, ErrInactive) {
		t.Errorf("inactive slot: got %v, want ErrInactive", err)
	}
}

func TestService_RegisterTestSlot_LastSeatRace(t *testing.T) {
	svc, fx, _ := newTestService(t)
	ctx := context.Background()

	slot := fx.CreateTestSlot(ctx, "Single seat", 1)
	alice := fx.CreateStudent(ctx, "Alice", "alice@test.com", "S001")
	bob := fx.CreateStudent(ctx, "Bob", "bob@test.com", "S002")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []primitive.ObjectID{alice.ID, bob.ID} {
		wg.Add(1)
		go func(i int, uid primitive.ObjectID) {
			defer wg.Done()
			_, errs[i] = svc.RegisterTestSlot(ctx, slot.ID, uid)
		}(i, uid)
	}
	wg.Wait()

	var wins, capacity int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrCapacityExceeded):
			capacity++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || capacity != 1 {
		t.Errorf("last seat race: %d admissions and %d capacity rejections, want 1 and 1", wins, capacity)
	}

	final, err := slotstore.New(fx.DB()).GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("loading slot: %v", err)
	}
	if final.RegisteredCount != 1 || len(final.RegisteredUserIDs) != 1 {
		t.Errorf("final slot state: count=%d members=%d, want 1 and 1", final.RegisteredCount, len(final.RegisteredUserIDs))
	}
}

func TestService_RegisterEvent(t *testing.T) {
	svc, fx, hub := newTestService(t)
	ctx := context.Background()

	ev := fx.CreateEvent(ctx, "Intro Workshop", 1)
	alice := fx.CreateStudent(ctx, "Alice", "alice@test.com", "S001")
	bob := fx.CreateStudent(ctx, "Bob", "bob@test.com", "S002")

	events := hub.Subscribe("svc-test")
	defer hub.Unsubscribe("svc-test")

	got, err := svc.RegisterEvent(ctx, ev.ID, alice.ID)
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	if !got.IsFull() {
		t.Errorf("event should be full after one admission at capacity 1")
	}

	if _, err := svc.RegisterEvent(ctx, ev.ID, bob.ID); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("registration beyond capacity: got %v, want ErrCapacityExceeded", err)
	}
	if _, err := svc.RegisterEvent(ctx, ev.ID, alice.ID); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate registration: got %v, want ErrAlreadyRegistered", err)
	}

	select {
	case e := <-events:
		if e.Name != realtime.EventRegistrationUpdate {
			t.Errorf("published event: got %q, want %q", e.Name, realtime.EventRegistrationUpdate)
		}
	default:
		t.Error("expected a published event for the admission")
	}
}

func TestService_RegisterSlotPreference(t *testing.T) {
	svc, fx, _ := newTestService(t)
	ctx := context.Background()

	pref := fx.CreateSlotPreference(ctx, "Which session works for you?",
		testutil.Option("Morning", 1),
		testutil.Option("Afternoon", 2),
	)
	alice := fx.CreateStudent(ctx, "Alice", "alice@test.com", "S001")
	bob := fx.CreateStudent(ctx, "Bob", "bob@test.com", "S002")
	carol := fx.CreateStudent(ctx, "Carol", "carol@test.com", "S003")

	got, err := svc.RegisterSlotPreference(ctx, pref.ID, alice.ID, 0)
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	if got.Slots[0].CurrentCount != 1 {
		t.Errorf("option 0 count = %d, want 1", got.Slots[0].CurrentCount)
	}

	// Uniqueness is preference-wide: holding the Morning option blocks the
	// Afternoon option too.
	if _, err := svc.RegisterSlotPreference(ctx, pref.ID, alice.ID, 1); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("cross-option duplicate: got %v, want ErrAlreadyRegistered", err)
	}

	if _, err := svc.RegisterSlotPreference(ctx, pref.ID, bob.ID, 0); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("full option: got %v, want ErrCapacityExceeded", err)
	}
	if _, err := svc.RegisterSlotPreference(ctx, pref.ID, carol.ID, 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("out-of-range option: got %v, want ErrInvalidInput", err)
	}
	if _, err := svc.RegisterSlotPreference(ctx, pref.ID, carol.ID, -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative option: got %v, want ErrInvalidInput", err)
	}

	// A full option is still open at the other index.
	if _, err := svc.RegisterSlotPreference(ctx, pref.ID, bob.ID, 1); err != nil {
		t.Fatalf("registration on open option failed: %v", err)
	}

	// The selection lands in the user's ledger under the option label.
	u, err := userstore.New(fx.DB()).GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("loading user: %v", err)
	}
	var entry *models.ResponseEntry
	for i := range u.Responses {
		if u.Responses[i].TargetID == pref.ID {
			entry = &u.Responses[i]
		}
	}
	if entry == nil {
		t.Fatal("no ledger entry for the slot preference")
	}
	if entry.TargetKind != models.TargetSlotPreference || entry.Answer != "Morning" {
		t.Errorf("ledger entry = %+v, want slot_preference / Morning", entry)
	}
}

func TestService_RespondSurveyQuestion(t *testing.T) {
	svc, fx, hub := newTestService(t)
	ctx := context.Background()

	q := fx.CreateSurveyQuestion(ctx, "Do you consent to recording?", models.QuestionTypeConsent, 2)
	alice := fx.CreateStudent(ctx, "Alice", "alice@test.com", "S001")

	events := hub.Subscribe("svc-test")
	defer hub.Unsubscribe("svc-test")

	got, normalized, err := svc.RespondSurveyQuestion(ctx, q.ID, alice.ID, "Y")
	if err != nil {
		t.Fatalf("response failed: %v", err)
	}
	if normalized != AnswerYes {
		t.Errorf("normalized answer = %q, want %q", normalized, AnswerYes)
	}
	if got.CurrentResponses != 1 || len(got.Responses) != 1 {
		t.Errorf("question state: current=%d responses=%d", got.CurrentResponses, len(got.Responses))
	}
	if got.Responses[0].Answer != AnswerYes {
		t.Errorf("stored answer = %q, want canonical %q", got.Responses[0].Answer, AnswerYes)
	}

	select {
	case e := <-events:
		if e.Name != realtime.SurveyResponseUpdate {
			t.Errorf("published event: got %q, want %q", e.Name, realtime.SurveyResponseUpdate)
		}
	default:
		t.Error("expected a published event for the response")
	}

	u, err := userstore.New(fx.DB()).GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("loading user: %v", err)
	}
	if len(u.Responses) != 1 || u.Responses[0].Answer != AnswerYes || u.Responses[0].TargetKind != models.TargetSurveyQuestion {
		t.Errorf("ledger = %+v, want one survey_question entry with answer Yes", u.Responses)
	}
}

func TestService_RespondSurvey_SecondAnswerRejected(t *testing.T) {
	svc, fx, _ := newTestService(t)
	ctx := context.Background()

	q := fx.CreateSurveyQuestion(ctx, "Preferred format?", models.QuestionTypeText, 10)
	alice := fx.CreateStudent(ctx, "Alice", "alice@test.com", "S001")

	if _, _, err := svc.RespondSurveyQuestion(ctx, q.ID, alice.ID, "in person"); err != nil {
		t.Fatalf("first answer failed: %v", err)
	}
	if _, _, err := svc.RespondSurveyQuestion(ctx, q.ID, alice.ID, "remote"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second answer: got %v, want ErrAlreadyRegistered", err)
	}

	final, err := surveystore.New(fx.DB()).GetByID(ctx, q.ID)
	if err != nil {
		t.Fatalf("loading question: %v", err)
	}
	if final.CurrentResponses != 1 || len(final.Responses) != 1 {
		t.Errorf("question state after rejected re-answer: current=%d responses=%d, want 1 and 1",
			final.CurrentResponses, len(final.Responses))
	}
	if final.Responses[0].Answer != "in person" {
		t.Errorf("stored answer = %q, want the first answer", final.Responses[0].Answer)
	}
}

func TestService_RespondSurvey_CapacityAndValidation(t *testing.T) {
	svc, fx, _ := newTestService(t)
	ctx := context.Background()

	q := fx.CreateSurveyQuestion(ctx, "Will you attend?", models.QuestionTypeYesNo, 1)
	alice := fx.CreateStudent(ctx, "Alice", "alice@test.com", "S001")
	bob := fx.CreateStudent(ctx, "Bob", "bob@test.com", "S002")

	if _, _, err := svc.RespondSurveyQuestion(ctx, q.ID, alice.ID, "perhaps"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("invalid yes/no answer: got %v, want ErrInvalidInput", err)
	}
	if _, _, err := svc.RespondSurveyQuestion(ctx, q.ID, alice.ID, "no"); err != nil {
		t.Fatalf("valid answer failed: %v", err)
	}
	if _, _, err := svc.RespondSurveyQuestion(ctx, q.ID, bob.ID, "yes"); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("answer beyond capacity: got %v, want ErrCapacityExceeded", err)
	}
	if _, _, err := svc.RespondSurveyQuestion(ctx, primitive.NewObjectID(), bob.ID, "yes"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing question: got %v, want ErrNotFound", err)
	}
}
