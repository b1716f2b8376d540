// Package surveystore persists survey questions and their embedded
// response lists.
package surveystore

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

// ErrNoMatch is returned by Respond when the conditional update matched no
// document; the caller re-reads the question to classify the rejection.
var ErrNoMatch = errors.New("survey response matched no document")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("survey_questions")}
}

// Create inserts a new survey question with an empty response list.
func (s *Store) Create(ctx context.Context, q models.SurveyQuestion) (models.SurveyQuestion, error) {
	now := time.Now().UTC()
	q.ID = primitive.NewObjectID()
	if q.QuestionType == "" {
		q.QuestionType = models.QuestionTypeText
	}
	q.CurrentResponses = 0
	q.Responses = []models.SurveyResponse{}
	q.IsActive = true
	q.CreatedAt = now
	q.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, q); err != nil {
		return models.SurveyQuestion{}, err
	}
	return q, nil
}

// GetByID returns a survey question by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.SurveyQuestion, error) {
	var q models.SurveyQuestion
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return models.SurveyQuestion{}, err
	}
	return q, nil
}

// GetByIDs returns the questions for the given ids.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.SurveyQuestion, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.SurveyQuestion
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns active questions, newest first.
func (s *Store) ListActive(ctx context.Context) ([]models.SurveyQuestion, error) {
	return s.find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// ListAll returns every question, newest first (admin view).
func (s *Store) ListAll(ctx context.Context) ([]models.SurveyQuestion, error) {
	return s.find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.SurveyQuestion, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var questions []models.SurveyQuestion
	if err := cur.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Update applies a partial admin edit and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, question *string, maxResponses *int, questionType *string, isActive *bool) (models.SurveyQuestion, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if question != nil {
		set["question"] = *question
	}
	if maxResponses != nil {
		set["max_responses"] = *maxResponses
	}
	if questionType != nil {
		set["question_type"] = *questionType
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	var q models.SurveyQuestion
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&q)
	if err != nil {
		return models.SurveyQuestion{}, err
	}
	return q, nil
}

// Delete removes a question by ID, returning the deleted count (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Respond appends userID's answer as one atomic conditional update: the
// filter asserts the question is active, below its response ceiling, and
// holds no response from the user; the update pushes the response and
// increments the counter together. A second response from the same user
// never matches the filter, so re-answering is rejected at the resource
// (the user-side ledger upsert would replace, but is never reached on that
// path).
func (s *Store) Respond(ctx context.Context, questionID, userID primitive.ObjectID, answer string) (models.SurveyQuestion, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"_id":               questionID,
		"is_active":         true,
		"responses.user_id": bson.M{"$ne": userID},
		"$expr":             bson.M{"$lt": bson.A{"$current_responses", "$max_responses"}},
	}
	update := bson.M{
		"$push": bson.M{"responses": models.SurveyResponse{
			UserID:      userID,
			Answer:      answer,
			SubmittedAt: now,
		}},
		"$inc": bson.M{"current_responses": 1},
		"$set": bson.M{"updated_at": now},
	}

	var q models.SurveyQuestion
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SurveyQuestion{}, ErrNoMatch
	}
	if err != nil {
		return models.SurveyQuestion{}, err
	}
	return q, nil
}

// Count returns the number of questions matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// SumResponses returns the total response count across all questions.
func (s *Store) SumResponses(ctx context.Context) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$current_responses"}}}},
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
