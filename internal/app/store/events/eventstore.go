// Package eventstore persists events and performs the capacity-gated
// registration update for them.
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoMatch is returned by Register when the conditional update matched no
// document; the caller re-reads the event to classify the rejection.
var ErrNoMatch = errors.New("event registration matched no document")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts a new event, setting TitleCI and timestamps and zeroing
// the registration counter.
func (s *Store) Create(ctx context.Context, ev models.Event) (models.Event, error) {
	now := time.Now().UTC()
	ev.ID = primitive.NewObjectID()
	ev.TitleCI = text.Fold(ev.Title)
	if ev.EventType == "" {
		ev.EventType = models.EventTypeWorkshop
	}
	ev.RegisteredCount = 0
	ev.RegisteredUserIDs = []primitive.ObjectID{}
	ev.IsActive = true
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// GetByID returns an event by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var ev models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// ListActive returns active events ordered by event date ascending.
func (s *Store) ListActive(ctx context.Context) ([]models.Event, error) {
	return s.find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}}))
}

// ListAll returns every event, newest first (admin view).
func (s *Store) ListAll(ctx context.Context) ([]models.Event, error) {
	return s.find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update applies a partial admin edit and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, title *string, eventDate *time.Time, registrationLimit *int, eventType, description *string, isActive *bool) (models.Event, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if title != nil {
		set["title"] = *title
		set["title_ci"] = text.Fold(*title)
	}
	if eventDate != nil {
		set["event_date"] = *eventDate
	}
	if registrationLimit != nil {
		set["registration_limit"] = *registrationLimit
	}
	if eventType != nil {
		set["event_type"] = *eventType
	}
	if description != nil {
		set["description"] = *description
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	var ev models.Event
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&ev)
	if err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// Delete removes an event by ID, returning the deleted count (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Register admits userID into the event with the same atomic conditional
// update as slotstore.Register: active + has room + not already a member,
// with the member add and counter increment in one document update.
func (s *Store) Register(ctx context.Context, eventID, userID primitive.ObjectID) (models.Event, error) {
	filter := bson.M{
		"_id":                 eventID,
		"is_active":           true,
		"registered_user_ids": bson.M{"$ne": userID},
		"$expr":               bson.M{"$lt": bson.A{"$registered_count", "$registration_limit"}},
	}
	update := bson.M{
		"$addToSet": bson.M{"registered_user_ids": userID},
		"$inc":      bson.M{"registered_count": 1},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}

	var ev models.Event
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, ErrNoMatch
	}
	if err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// Count returns the number of events matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// SumRegistered returns the total registered count across all events.
func (s *Store) SumRegistered(ctx context.Context) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$registered_count"}}}},
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
