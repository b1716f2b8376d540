// Package slotstore persists test slots and performs the capacity-gated
// registration update for them.
package slotstore

import (
	"context"
	"errors"
	"time"

	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoMatch is returned by Register when the conditional update matched no
// document. The caller re-reads the slot to find out why (missing, inactive,
// full, or already registered).
var ErrNoMatch = errors.New("slot registration matched no document")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("test_slots")}
}

// Create inserts a new test slot with a zeroed counter and active flag set.
func (s *Store) Create(ctx context.Context, slot models.TestSlot) (models.TestSlot, error) {
	now := time.Now().UTC()
	slot.ID = primitive.NewObjectID()
	slot.RegisteredCount = 0
	slot.RegisteredUserIDs = []primitive.ObjectID{}
	slot.IsActive = true
	slot.CreatedAt = now
	slot.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, slot); err != nil {
		return models.TestSlot{}, err
	}
	return slot, nil
}

// GetByID returns a test slot by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.TestSlot, error) {
	var slot models.TestSlot
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&slot)
	if err != nil {
		return models.TestSlot{}, err
	}
	return slot, nil
}

// GetByIDs returns the slots for the given ids, preserving no particular
// order.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.TestSlot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.TestSlot
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns active slots ordered by test date ascending.
func (s *Store) ListActive(ctx context.Context) ([]models.TestSlot, error) {
	return s.find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "test_date", Value: 1}}))
}

// ListAll returns every slot, newest first (admin view).
func (s *Store) ListAll(ctx context.Context) ([]models.TestSlot, error) {
	return s.find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.TestSlot, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var slots []models.TestSlot
	if err := cur.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// Update applies a partial admin edit and refreshes UpdatedAt. Nil fields
// are left untouched.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, testDate *time.Time, registrationLimit *int, isActive *bool, description *string) (models.TestSlot, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if testDate != nil {
		set["test_date"] = *testDate
	}
	if registrationLimit != nil {
		set["registration_limit"] = *registrationLimit
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}
	if description != nil {
		set["description"] = *description
	}

	var slot models.TestSlot
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&slot)
	if err != nil {
		return models.TestSlot{}, err
	}
	return slot, nil
}

// Delete removes a slot by ID. Returns the number of documents deleted
// (0 or 1). Ledger entries pointing at the slot are left dangling and
// resolved at read time.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Register admits userID into the slot as one atomic conditional update:
// the filter asserts the slot is active, has room, and does not already
// contain the user; the update adds the member and increments the counter
// together. Two concurrent attempts at the last seat therefore cannot both
// commit. On success the updated document is returned.
//
// ErrNoMatch means the precondition filter matched nothing; the caller
// classifies the rejection.
func (s *Store) Register(ctx context.Context, slotID, userID primitive.ObjectID) (models.TestSlot, error) {
	filter := bson.M{
		"_id":                 slotID,
		"is_active":           true,
		"registered_user_ids": bson.M{"$ne": userID},
		"$expr":               bson.M{"$lt": bson.A{"$registered_count", "$registration_limit"}},
	}
	update := bson.M{
		"$addToSet": bson.M{"registered_user_ids": userID},
		"$inc":      bson.M{"registered_count": 1},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}

	var slot models.TestSlot
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.TestSlot{}, ErrNoMatch
	}
	if err != nil {
		return models.TestSlot{}, err
	}
	return slot, nil
}

// Count returns the number of slots matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// SumRegistered returns the total registered count across all slots.
func (s *Store) SumRegistered(ctx context.Context) (int64, error) {
	return sumField(ctx, s.c, "$registered_count")
}

// sumField runs the shared $group/$sum aggregation used by the dashboard.
func sumField(ctx context.Context, c *mongo.Collection, field string) (int64, error) {
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": field}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
