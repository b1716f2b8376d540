package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a user with the given role. The password is "secret123".
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hashing fixture password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("creating test user: %v", err)
	}
	return user
}

// CreateAdmin creates an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateStudent creates a regular user with a student ID.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email, studentID string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, name, email, models.RoleUser)
	u.StudentID = studentID
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID,
		map[string]any{"$set": map[string]any{"student_id": studentID}}); err != nil {
		f.t.Fatalf("setting fixture student id: %v", err)
	}
	return u
}

// CreateTestSlot creates an active test slot with the given capacity.
func (f *Fixtures) CreateTestSlot(ctx context.Context, description string, limit int) models.TestSlot {
	f.t.Helper()

	now := time.Now().UTC()
	slot := models.TestSlot{
		ID:                primitive.NewObjectID(),
		TestDate:          now.Add(48 * time.Hour),
		Description:       description,
		RegistrationLimit: limit,
		RegisteredUserIDs: []primitive.ObjectID{},
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := f.db.Collection("test_slots").InsertOne(ctx, slot); err != nil {
		f.t.Fatalf("creating test slot: %v", err)
	}
	return slot
}

// CreateEvent creates an active event with the given capacity.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, limit int) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	ev := models.Event{
		ID:                primitive.NewObjectID(),
		Title:             title,
		TitleCI:           text.Fold(title),
		EventDate:         now.Add(72 * time.Hour),
		EventType:         models.EventTypeWorkshop,
		RegistrationLimit: limit,
		RegisteredUserIDs: []primitive.ObjectID{},
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, ev); err != nil {
		f.t.Fatalf("creating test event: %v", err)
	}
	return ev
}

// CreateSlotPreference creates an active slot preference whose options are
// built from the given (label, capacity) pairs.
func (f *Fixtures) CreateSlotPreference(ctx context.Context, question string, options ...models.SlotOption) models.SlotPreference {
	f.t.Helper()

	now := time.Now().UTC()
	slots := make([]models.SlotOption, len(options))
	for i, opt := range options {
		slots[i] = models.SlotOption{
			Label:             opt.Label,
			MaxCount:          opt.MaxCount,
			RegisteredUserIDs: []primitive.ObjectID{},
		}
	}
	pref := models.SlotPreference{
		ID:        primitive.NewObjectID(),
		Question:  question,
		Slots:     slots,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("slot_preferences").InsertOne(ctx, pref); err != nil {
		f.t.Fatalf("creating test slot preference: %v", err)
	}
	return pref
}

// Option builds a SlotOption for CreateSlotPreference.
func Option(label string, maxCount int) models.SlotOption {
	return models.SlotOption{Label: label, MaxCount: maxCount}
}

// CreateSurveyQuestion creates an active survey question of the given type
// accepting up to maxResponses answers.
func (f *Fixtures) CreateSurveyQuestion(ctx context.Context, question, questionType string, maxResponses int) models.SurveyQuestion {
	f.t.Helper()

	now := time.Now().UTC()
	q := models.SurveyQuestion{
		ID:           primitive.NewObjectID(),
		Question:     question,
		QuestionType: questionType,
		MaxResponses: maxResponses,
		Responses:    []models.SurveyResponse{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("survey_questions").InsertOne(ctx, q); err != nil {
		f.t.Fatalf("creating test survey question: %v", err)
	}
	return q
}
