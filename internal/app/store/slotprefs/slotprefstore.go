// Package slotprefstore persists slot preferences: a prompt with multiple
// independently capacity-bounded options, where a user may occupy at most
// one option across the whole document.
package slotprefstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoMatch is returned by Register when the conditional update matched no
// document; the caller re-reads the preference to classify the rejection.
var ErrNoMatch = errors.New("slot preference registration matched no document")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("slot_preferences")}
}

// Create inserts a new slot preference with zeroed option counters.
func (s *Store) Create(ctx context.Context, pref models.SlotPreference) (models.SlotPreference, error) {
	now := time.Now().UTC()
	pref.ID = primitive.NewObjectID()
	for i := range pref.Slots {
		pref.Slots[i].CurrentCount = 0
		pref.Slots[i].RegisteredUserIDs = []primitive.ObjectID{}
	}
	pref.IsActive = true
	pref.CreatedAt = now
	pref.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, pref); err != nil {
		return models.SlotPreference{}, err
	}
	return pref, nil
}

// GetByID returns a slot preference by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.SlotPreference, error) {
	var pref models.SlotPreference
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&pref); err != nil {
		return models.SlotPreference{}, err
	}
	return pref, nil
}

// GetByIDs returns the preferences for the given ids, preserving no
// particular order.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.SlotPreference, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListActive returns active preferences, newest first.
func (s *Store) ListActive(ctx context.Context) ([]models.SlotPreference, error) {
	return s.find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// ListAll returns every preference, newest first (admin view).
func (s *Store) ListAll(ctx context.Context) ([]models.SlotPreference, error) {
	return s.find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.SlotPreference, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var prefs []models.SlotPreference
	if err := cur.All(ctx, &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// Update applies a partial admin edit (prompt text and active flag; option
// capacities are fixed after creation, matching the admin surface).
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, question *string, isActive *bool) (models.SlotPreference, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if question != nil {
		set["question"] = *question
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	var pref models.SlotPreference
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&pref)
	if err != nil {
		return models.SlotPreference{}, err
	}
	return pref, nil
}

// Delete removes a preference by ID, returning the deleted count (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Register admits userID into the option at slotIndex as one atomic
// conditional update. The filter asserts:
//   - the document is active,
//   - the targeted option still has room ($expr over the option's counter),
//   - the user occupies no option anywhere in the document (group-wide
//     uniqueness).
//
// The update adds the member to the targeted option and increments that
// option's counter together, so concurrent attempts at the option's last
// seat cannot both commit.
func (s *Store) Register(ctx context.Context, prefID, userID primitive.ObjectID, slotIndex int) (models.SlotPreference, error) {
	filter := bson.M{
		"_id":                       prefID,
		"is_active":                 true,
		"slots.registered_user_ids": bson.M{"$ne": userID},
		// $slots.current_count resolves to the array of per-option counters;
		// compare the targeted option's counter against its ceiling.
		"$expr": bson.M{"$lt": bson.A{
			bson.M{"$arrayElemAt": bson.A{"$slots.current_count", slotIndex}},
			bson.M{"$arrayElemAt": bson.A{"$slots.max_count", slotIndex}},
		}},
	}
	update := bson.M{
		"$addToSet": bson.M{fmt.Sprintf("slots.%d.registered_user_ids", slotIndex): userID},
		"$inc":      bson.M{fmt.Sprintf("slots.%d.current_count", slotIndex): 1},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}

	var pref models.SlotPreference
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&pref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SlotPreference{}, ErrNoMatch
	}
	if err != nil {
		return models.SlotPreference{}, err
	}
	return pref, nil
}

// Count returns the number of preferences matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// SumSelections returns the total selections across all preferences,
// summing every option's current count.
func (s *Store) SumSelections(ctx context.Context) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$sum": "$slots.current_count"}},
		}}},
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
