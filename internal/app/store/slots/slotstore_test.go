package slotstore_test

import (
	"errors"
	"testing"
	"time"

	slotstore "github.com/slotdesk/slotdesk/internal/app/store/slots"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"github.com/slotdesk/slotdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.TestSlot{
		TestDate:          time.Now().UTC().Add(24 * time.Hour),
		Description:       "Placement test, room 101",
		RegistrationLimit: 20,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.RegisteredCount != 0 {
		t.Errorf("RegisteredCount: got %d, want 0", created.RegisteredCount)
	}
	if created.RegisteredUserIDs == nil || len(created.RegisteredUserIDs) != 0 {
		t.Errorf("RegisteredUserIDs: got %v, want empty slice", created.RegisteredUserIDs)
	}
	if !created.IsActive {
		t.Error("expected new slot to be active")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	slot := fixtures.CreateTestSlot(ctx, "Morning session", 2)
	userID := primitive.NewObjectID()

	updated, err := store.Register(ctx, slot.ID, userID)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if updated.RegisteredCount != 1 {
		t.Errorf("RegisteredCount: got %d, want 1", updated.RegisteredCount)
	}
	found := false
	for _, id := range updated.RegisteredUserIDs {
		if id == userID {
			found = true
		}
	}
	if !found {
		t.Error("expected user in RegisteredUserIDs")
	}
}

func TestStore_Register_NoMatchWhenFull(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	slot := fixtures.CreateTestSlot(ctx, "Single seat", 1)

	if _, err := store.Register(ctx, slot.ID, primitive.NewObjectID()); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := store.Register(ctx, slot.ID, primitive.NewObjectID())
	if !errors.Is(err, slotstore.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for full slot, got %v", err)
	}

	// Counter must not have moved past capacity.
	cur, err := store.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if cur.RegisteredCount != 1 {
		t.Errorf("RegisteredCount after rejected attempt: got %d, want 1", cur.RegisteredCount)
	}
}

func TestStore_Register_NoMatchOnDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	slot := fixtures.CreateTestSlot(ctx, "Two seats", 2)
	userID := primitive.NewObjectID()

	if _, err := store.Register(ctx, slot.ID, userID); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := store.Register(ctx, slot.ID, userID)
	if !errors.Is(err, slotstore.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for repeat registration, got %v", err)
	}

	cur, err := store.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if cur.RegisteredCount != 1 || len(cur.RegisteredUserIDs) != 1 {
		t.Errorf("expected one member after repeat attempt, got count=%d members=%d",
			cur.RegisteredCount, len(cur.RegisteredUserIDs))
	}
}

func TestStore_Register_NoMatchWhenInactive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	slot := fixtures.CreateTestSlot(ctx, "Closed session", 5)
	inactive := false
	if _, err := store.Update(ctx, slot.ID, nil, nil, &inactive, nil); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	_, err := store.Register(ctx, slot.ID, primitive.NewObjectID())
	if !errors.Is(err, slotstore.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for inactive slot, got %v", err)
	}
}

func TestStore_Update_PartialFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	slot := fixtures.CreateTestSlot(ctx, "Original description", 10)

	newLimit := 25
	updated, err := store.Update(ctx, slot.ID, nil, &newLimit, nil, nil)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.RegistrationLimit != 25 {
		t.Errorf("RegistrationLimit: got %d, want 25", updated.RegistrationLimit)
	}
	if updated.Description != "Original description" {
		t.Errorf("Description changed unexpectedly: %q", updated.Description)
	}
	if !updated.IsActive {
		t.Error("IsActive changed unexpectedly")
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	desc := "whatever"
	_, err := store.Update(ctx, primitive.NewObjectID(), nil, nil, nil, &desc)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	slot := fixtures.CreateTestSlot(ctx, "To be removed", 5)

	n, err := store.Delete(ctx, slot.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted count: got %d, want 1", n)
	}

	n, err = store.Delete(ctx, slot.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted count on missing slot: got %d, want 0", n)
	}
}

func TestStore_ListActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateTestSlot(ctx, "Visible A", 5)
	fixtures.CreateTestSlot(ctx, "Visible B", 5)
	hidden := fixtures.CreateTestSlot(ctx, "Hidden", 5)
	inactive := false
	if _, err := store.Update(ctx, hidden.ID, nil, nil, &inactive, nil); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	slots, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 active slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Description == "Hidden" {
			t.Error("inactive slot leaked into ListActive")
		}
	}
}

func TestStore_SumRegistered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := slotstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateTestSlot(ctx, "A", 5)
	b := fixtures.CreateTestSlot(ctx, "B", 5)
	for i := 0; i < 3; i++ {
		if _, err := store.Register(ctx, a.ID, primitive.NewObjectID()); err != nil {
			t.Fatalf("Register into A failed: %v", err)
		}
	}
	if _, err := store.Register(ctx, b.ID, primitive.NewObjectID()); err != nil {
		t.Fatalf("Register into B failed: %v", err)
	}

	total, err := store.SumRegistered(ctx)
	if err != nil {
		t.Fatalf("SumRegistered failed: %v", err)
	}
	if total != 4 {
		t.Errorf("total registered: got %d, want 4", total)
	}

	n, err := store.Count(ctx, bson.M{"is_active": true})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("active count: got %d, want 2", n)
	}
}
