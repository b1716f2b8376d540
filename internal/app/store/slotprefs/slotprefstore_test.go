package slotprefstore_test

import (
	"errors"
	"testing"

	slotprefstore "github.com/slotdesk/slotdesk/internal/app/store/slotprefs"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"github.com/slotdesk/slotdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotprefstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.SlotPreference{
		Question: "Preferred exam time?",
		Slots: []models.SlotOption{
			{Label: "Morning", MaxCount: 10},
			{Label: "Afternoon", MaxCount: 15},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if len(created.Slots) != 2 {
		t.Fatalf("expected 2 options, got %d", len(created.Slots))
	}
	for i, opt := range created.Slots {
		if opt.CurrentCount != 0 {
			t.Errorf("option %d CurrentCount: got %d, want 0", i, opt.CurrentCount)
		}
		if opt.RegisteredUserIDs == nil {
			t.Errorf("option %d RegisteredUserIDs is nil", i)
		}
	}
	if !created.IsActive {
		t.Error("expected new preference to be active")
	}
}

func TestStore_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotprefstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pref := fixtures.CreateSlotPreference(ctx, "Pick a time",
		testutil.Option("Morning", 2), testutil.Option("Afternoon", 2))
	userID := primitive.NewObjectID()

	updated, err := store.Register(ctx, pref.ID, userID, 1)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if updated.Slots[1].CurrentCount != 1 {
		t.Errorf("option 1 CurrentCount: got %d, want 1", updated.Slots[1].CurrentCount)
	}
	if updated.Slots[0].CurrentCount != 0 {
		t.Errorf("option 0 CurrentCount: got %d, want 0", updated.Slots[0].CurrentCount)
	}
	if !updated.HasRegistered(userID) {
		t.Error("expected user to be registered in the preference")
	}
}

func TestStore_Register_GroupWideUniqueness(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotprefstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pref := fixtures.CreateSlotPreference(ctx, "Pick a time",
		testutil.Option("Morning", 5), testutil.Option("Afternoon", 5))
	userID := primitive.NewObjectID()

	if _, err := store.Register(ctx, pref.ID, userID, 0); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	// A user holding option 0 may not also take option 1.
	_, err := store.Register(ctx, pref.ID, userID, 1)
	if !errors.Is(err, slotprefstore.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for cross-option repeat, got %v", err)
	}

	cur, err := store.GetByID(ctx, pref.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if cur.Slots[0].CurrentCount != 1 || cur.Slots[1].CurrentCount != 0 {
		t.Errorf("counts moved on rejected attempt: %d/%d",
			cur.Slots[0].CurrentCount, cur.Slots[1].CurrentCount)
	}
}

func TestStore_Register_PerOptionCapacity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotprefstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pref := fixtures.CreateSlotPreference(ctx, "Pick a time",
		testutil.Option("Tiny", 1), testutil.Option("Roomy", 5))

	if _, err := store.Register(ctx, pref.ID, primitive.NewObjectID(), 0); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Option 0 is full; a different user is rejected there but can still
	// take option 1.
	second := primitive.NewObjectID()
	if _, err := store.Register(ctx, pref.ID, second, 0); !errors.Is(err, slotprefstore.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for full option, got %v", err)
	}
	if _, err := store.Register(ctx, pref.ID, second, 1); err != nil {
		t.Errorf("Register into open option failed: %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotprefstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pref := fixtures.CreateSlotPreference(ctx, "Old prompt", testutil.Option("A", 3))

	question := "New prompt"
	inactive := false
	updated, err := store.Update(ctx, pref.ID, &question, &inactive)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Question != question {
		t.Errorf("Question: got %q, want %q", updated.Question, question)
	}
	if updated.IsActive {
		t.Error("expected preference to be deactivated")
	}
	if len(updated.Slots) != 1 || updated.Slots[0].MaxCount != 3 {
		t.Error("options changed unexpectedly")
	}
}

func TestStore_SumSelections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotprefstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateSlotPreference(ctx, "First",
		testutil.Option("X", 5), testutil.Option("Y", 5))
	b := fixtures.CreateSlotPreference(ctx, "Second", testutil.Option("Z", 5))

	for i := 0; i < 2; i++ {
		if _, err := store.Register(ctx, a.ID, primitive.NewObjectID(), i); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	if _, err := store.Register(ctx, b.ID, primitive.NewObjectID(), 0); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	total, err := store.SumSelections(ctx)
	if err != nil {
		t.Fatalf("SumSelections failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total selections: got %d, want 3", total)
	}
}
