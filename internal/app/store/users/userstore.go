// Package userstore persists user accounts, their registered test slots,
// and their response ledger.
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/slotdesk/slotdesk/internal/app/system/normalize"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	// ErrDuplicateStudentID is returned when the student id is taken.
	ErrDuplicateStudentID = errors.New("an account with this student id already exists")
	// ErrInvalidCredentials is returned by Authenticate on a bad
	// email/password pair. It deliberately does not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user with a bcrypt-hashed password. Email and name
// are normalized before the write; the unique index on email (and the
// sparse one on student_id) backs the duplicate errors.
func (s *Store) Create(ctx context.Context, name, email, password, role, studentID string) (models.User, error) {
	now := time.Now().UTC()

	name = normalize.Name(name)
	email = normalize.Email(email)
	studentID = normalize.StudentID(studentID)
	if role == "" {
		role = models.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		ID:                primitive.NewObjectID(),
		Name:              name,
		NameCI:            text.Fold(name),
		Email:             email,
		PasswordHash:      string(hash),
		Role:              role,
		StudentID:         studentID,
		RegisteredSlotIDs: []primitive.ObjectID{},
		Responses:         []models.ResponseEntry{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			// Email and student_id are the only unique keys; a fresh
			// ObjectID cannot collide.
			if studentID != "" {
				if n, countErr := s.c.CountDocuments(ctx, bson.M{"student_id": studentID}); countErr == nil && n > 0 {
					return models.User{}, ErrDuplicateStudentID
				}
			}
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate verifies an email/password pair and returns the user.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID returns a user by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail returns a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByIDs returns the users for the given ids.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddRegisteredSlot records a test-slot registration on the user document.
// $addToSet keeps the set duplicate-free even if the write is retried.
func (s *Store) AddRegisteredSlot(ctx context.Context, userID, slotID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"registered_slot_ids": slotID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// UpsertResponse writes a ledger entry keyed by (TargetID, TargetKind):
// if an entry with the same key exists it is replaced in place with the
// new answer and timestamp; otherwise the entry is appended. The ledger
// therefore never holds two entries for the same target.
func (s *Store) UpsertResponse(ctx context.Context, userID primitive.ObjectID, entry models.ResponseEntry) error {
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = time.Now().UTC()
	}

	// Replace-in-place when the key already exists.
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id": userID,
			"responses": bson.M{"$elemMatch": bson.M{
				"target_id":   entry.TargetID,
				"target_kind": entry.TargetKind,
			}},
		},
		bson.M{"$set": bson.M{
			"responses.$.answer":       entry.Answer,
			"responses.$.submitted_at": entry.SubmittedAt,
			"updated_at":               time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No existing entry for this key: append.
	_, err = s.c.UpdateByID(ctx, userID, bson.M{
		"$push": bson.M{"responses": entry},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// CountByRole returns the number of users holding the given role.
func (s *Store) CountByRole(ctx context.Context, role string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": role})
}
